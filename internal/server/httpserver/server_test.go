package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The full ownership lifecycle: register, create, view, and delete with the
// owner, another user and an anonymous caller.
func TestJokeLifecycle(t *testing.T) {
	e := newTestEnv(t)

	kody := e.signup(t, "kody", "twixrox")
	other := e.signup(t, "mallory", "hunter22")

	rec := e.do(t, http.MethodPost, "/jokes", url.Values{
		"name":    {"Road worker"},
		"content": {"I never wanted to believe that my Dad was stealing from his job as a road worker."},
	}, kody)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/jokes/"), loc)

	rec = e.do(t, http.MethodGet, loc, nil, kody)
	require.Equal(t, http.StatusOK, rec.Code)
	owned := decode[jokeResponse](t, rec)
	assert.Equal(t, "Road worker", owned.Joke.Name)
	assert.Equal(t, "kody", owned.Username)
	assert.True(t, owned.IsOwner)

	rec = e.do(t, http.MethodGet, loc, nil, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[jokeResponse](t, rec).IsOwner)

	rec = e.do(t, http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[jokeResponse](t, rec).IsOwner)

	del := url.Values{"_method": {"delete"}}

	rec = e.do(t, http.MethodPost, loc, del, other)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Can't delete a joke that doesn't belong to you.", decode[errorResponse](t, rec).Error)

	rec = e.do(t, http.MethodPost, loc, del)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirectTo="+url.QueryEscape(loc), rec.Header().Get("Location"))

	rec = e.do(t, http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, rec.Code, "joke must survive rejected deletes")

	rec = e.do(t, http.MethodPost, loc, del, kody)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/jokes", rec.Header().Get("Location"))

	rec = e.do(t, http.MethodGet, loc, nil, kody)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Joke not found.", decode[errorResponse](t, rec).Error)

	rec = e.do(t, http.MethodPost, loc, del, kody)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Can't delete a joke that does not exist.", decode[errorResponse](t, rec).Error)

	n, err := testutil.GatherAndCount(e.metrics.Registry(), "gophjokes_joke_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLegacyJokeIsImmutable(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")
	j := e.addJoke(t, nil)

	rec := e.do(t, http.MethodGet, "/jokes/"+j.ID, nil, kody)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[jokeResponse](t, rec)
	assert.False(t, resp.IsOwner)
	assert.Empty(t, resp.Username)

	rec = e.do(t, http.MethodPost, "/jokes/"+j.ID, url.Values{"_method": {"delete"}}, kody)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateJoke_Anonymous(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/jokes", url.Values{"name": {"Road worker"}, "content": {"long enough content"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirectTo=%2Fjokes%2Fnew", rec.Header().Get("Location"))

	n, err := e.repos.Jokes(nil).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateJoke_Validation(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")

	rec := e.do(t, http.MethodPost, "/jokes", url.Values{"name": {"ab"}, "content": {"short"}}, kody)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[jokeFormResponse](t, rec)
	assert.Equal(t, "That joke's name is too short", resp.FieldErrors["name"])
	assert.Equal(t, "That joke is too short", resp.FieldErrors["content"])
	assert.Equal(t, map[string]string{"name": "ab", "content": "short"}, resp.Fields)
}

func TestJokeAction_UnsupportedMethod(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")

	rec := e.do(t, http.MethodPost, "/jokes/whatever", url.Values{"_method": {"put"}}, kody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The put method is not supported.", decode[errorResponse](t, rec).Error)

	rec = e.do(t, http.MethodPost, "/jokes/whatever", url.Values{}, kody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The  method is not supported.", decode[errorResponse](t, rec).Error)
}

func TestListJokes(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")

	for i := 0; i < 7; i++ {
		rec := e.do(t, http.MethodPost, "/jokes", url.Values{
			"name":    {"Joke number " + string(rune('A'+i))},
			"content": {"the content of that joke"},
		}, kody)
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/jokes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	anon := decode[listResponse](t, rec)
	assert.Len(t, anon.Jokes, 5)
	assert.Nil(t, anon.User)

	rec = e.do(t, http.MethodGet, "/jokes?limit=2", nil, kody)
	require.Equal(t, http.StatusOK, rec.Code)
	authed := decode[listResponse](t, rec)
	assert.Len(t, authed.Jokes, 2)
	require.NotNil(t, authed.User)
	assert.Equal(t, "kody", authed.User.Username)

	rec = e.do(t, http.MethodGet, "/jokes?limit=lots", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRandomJoke(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/jokes/random", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No random joke found.", decode[errorResponse](t, rec).Error)

	j := e.addJoke(t, nil)
	rec = e.do(t, http.MethodGet, "/jokes/random", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, j.ID, decode[jokeResponse](t, rec).Joke.ID)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "kody", "twixrox")

	t.Run("success honours redirectTo", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType":  {"login"},
			"username":   {"kody"},
			"password":   {"twixrox"},
			"redirectTo": {"/jokes/new"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/jokes/new", rec.Header().Get("Location"))
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("default and unsafe redirect", func(t *testing.T) {
		for _, target := range []string{"", "//evil.example", "https://evil.example/"} {
			rec := e.do(t, http.MethodPost, "/login", url.Values{
				"loginType":  {"login"},
				"username":   {"kody"},
				"password":   {"twixrox"},
				"redirectTo": {target},
			})
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/jokes", rec.Header().Get("Location"), target)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType": {"login"}, "username": {"kody"}, "password": {"wrong-pass"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[loginResponse](t, rec)
		assert.Equal(t, "Incorrect username or password", resp.FormError)
		assert.Equal(t, "kody", resp.Fields.Username)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType": {"login"}, "username": {"nobody"}, "password": {"wrong-pass"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Incorrect username or password", decode[loginResponse](t, rec).FormError)
	})

	t.Run("validation", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType": {"login"}, "username": {"ko"}, "password": {"twix"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[loginResponse](t, rec)
		assert.Equal(t, "Usernames must be at least 3 characters long", resp.FieldErrors["username"])
		assert.Equal(t, "Passwords must be at least 6 characters long", resp.FieldErrors["password"])
		assert.Equal(t, "login", resp.Fields.LoginType)
	})

	t.Run("username taken", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType": {"register"}, "username": {"kody"}, "password": {"another1"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[loginResponse](t, rec)
		assert.Equal(t, "User with username kody already exists", resp.FieldErrors["username"])
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("bad login type", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/login", url.Values{
			"loginType": {"sudo"}, "username": {"kody"}, "password": {"twixrox"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[loginResponse](t, rec)
		assert.Equal(t, "sudo", resp.Fields.LoginType)
		assert.Equal(t, "Login type invalid", resp.FormError)
		assert.Empty(t, resp.FieldErrors)
		assert.NotContains(t, rec.Body.String(), "twixrox")
	})
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")

	rec := e.do(t, http.MethodPost, "/logout", nil, kody)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/jokes", rec.Header().Get("Location"))
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)

	rec = e.do(t, http.MethodGet, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/jokes", rec.Header().Get("Location"))
	assert.Nil(t, sessionCookie(rec))
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	e := newTestEnv(t)
	kody := e.signup(t, "kody", "twixrox")

	forged := *kody
	forged.Value = kody.Value[:len(kody.Value)-2] + "xx"

	rec := e.do(t, http.MethodPost, "/jokes", url.Values{"name": {"Road worker"}, "content": {"long enough content"}}, &forged)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?"))
}

type failingJokes struct{}

func (failingJokes) List(context.Context, int) ([]*models.Joke, error) {
	return nil, common.ErrorInternal
}
func (failingJokes) GetByID(context.Context, string) (*models.Joke, error) {
	return nil, common.ErrorInternal
}
func (failingJokes) GetRandom(context.Context) (*models.Joke, error) {
	return nil, common.ErrorInternal
}
func (failingJokes) Create(context.Context, string, string, string) (*models.Joke, error) {
	return nil, common.ErrorInternal
}
func (failingJokes) Delete(context.Context, string, string) error { return common.ErrorInternal }

type anonymousSessions struct{ Sessions }

func (anonymousSessions) CurrentUserID(*http.Request) (string, bool) { return "", false }
func (anonymousSessions) CurrentUser(context.Context, *http.Request) (*models.User, error) {
	return nil, nil
}

func TestInternalErrorsAre500(t *testing.T) {
	srv := New("127.0.0.1:0", failingJokes{}, nil, anonymousSessions{}, logging.Nop{}, nil)
	h := srv.Handler()

	for _, target := range []string{"/jokes", "/jokes/random", "/jokes/abc"} {
		e := &testEnv{handler: h}
		rec := e.do(t, http.MethodGet, target, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code, target)
		assert.Equal(t, "internal error", decode[errorResponse](t, rec).Error)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := New("127.0.0.1:0", failingJokes{}, nil, anonymousSessions{}, logging.Nop{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := New("127.0.0.1:99999", failingJokes{}, nil, anonymousSessions{}, logging.Nop{}, nil)
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
