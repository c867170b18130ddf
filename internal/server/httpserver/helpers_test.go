package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/auth"
	"github.com/dmitrijs2005/gophjokes/internal/server/metrics"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
	"github.com/dmitrijs2005/gophjokes/internal/server/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	handler http.Handler
	repos   *repomanager.InMemoryRepositoryManager
	metrics *metrics.Metrics
}

// newTestEnv wires real services over in-memory repositories. The sqlite
// connection only hosts the transactions the user service opens.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := repomanager.NewInMemoryRepositoryManager()
	users := services.NewUserService(db, repos, &auth.PasswordHasher{Cost: bcrypt.MinCost}, logging.Nop{})
	jokes := services.NewJokeService(db, repos, logging.Nop{})

	codec, err := auth.NewSessionCodec([]byte("test-secret"), auth.DefaultMaxAge)
	require.NoError(t, err)

	m := metrics.New()
	sessions := session.NewManager(users, codec, logging.Nop{}, m)
	srv := New("127.0.0.1:0", jokes, users, sessions, logging.Nop{}, m)

	return &testEnv{handler: srv.Handler(), repos: repos, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		if c != nil {
			r.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

// signup registers a user and returns its session cookie.
func (e *testEnv) signup(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", url.Values{
		"loginType": {"register"},
		"username":  {username},
		"password":  {password},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	c := sessionCookie(rec)
	require.NotNil(t, c)
	return c
}

func (e *testEnv) addJoke(t *testing.T, owner *models.User) *models.Joke {
	t.Helper()
	j := &models.Joke{ID: "legacy-1", Name: "Old one", Content: "from before ownership"}
	if owner != nil {
		j.ID = "owned-1"
		j.OwnerID = owner.ID
	}
	out, err := e.repos.Jokes(nil).Create(context.Background(), j)
	require.NoError(t, err)
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
