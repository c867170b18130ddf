package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Length policy for credentials and jokes.
const (
	MinUsernameLen = 3
	MinPasswordLen = 6
	MinJokeNameLen = 3
	MinContentLen  = 10
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// orNil returns e as an error only if it holds at least one field.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func tooShort(s string, n int) bool {
	return utf8.RuneCountInString(s) < n
}

// ValidateCredentials checks a username/password pair and reports every
// violation at once.
func ValidateCredentials(username, password string) error {
	v := &ValidationError{}
	if tooShort(username, MinUsernameLen) {
		v.add("username", fmt.Sprintf("Usernames must be at least %d characters long", MinUsernameLen))
	}
	if tooShort(password, MinPasswordLen) {
		v.add("password", fmt.Sprintf("Passwords must be at least %d characters long", MinPasswordLen))
	}
	return v.orNil()
}

// ValidateJoke checks the fields of a new joke.
func ValidateJoke(name, content string) error {
	v := &ValidationError{}
	if tooShort(name, MinJokeNameLen) {
		v.add("name", "That joke's name is too short")
	}
	if tooShort(content, MinContentLen) {
		v.add("content", "That joke is too short")
	}
	return v.orNil()
}

func usernameTaken(username string) error {
	return &ValidationError{Fields: map[string]string{
		"username": fmt.Sprintf("User with username %s already exists", username),
	}}
}
