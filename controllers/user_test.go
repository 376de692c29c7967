package controllers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	creds := map[string]string{"name": "Ada", "email": "Ada@Example.com", "password": "correct-horse"}

	rr, body := env.do(t, http.MethodPost, "/api/user/register", "", creds)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, true, body["success"])

	user, err := env.stores.Users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "correct-horse", user.Password)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "ada@example.com", env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].HTML, publicURL+"/api/user/verify?token="+user.VerificationToken)

	rr, _ = env.do(t, http.MethodGet, "/api/user/profile", user.VerificationToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	login := map[string]string{"email": "ada@example.com", "password": "correct-horse"}
	rr, body = env.do(t, http.MethodPost, "/api/user/login", "", login)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Email not verified", body["message"])

	rr, _ = env.do(t, http.MethodGet, "/api/user/verify?token="+url.QueryEscape(user.VerificationToken), "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, body = env.do(t, http.MethodPost, "/api/user/login", "", login)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rr, body = env.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	profile := body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.NotContains(t, profile, "password")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodPost, "/api/user/register", "", map[string]string{"email": "nope", "password": "long-enough"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, body["success"])

	rr, _ = env.do(t, http.MethodPost, "/api/user/register", "", map[string]string{"email": "a@b.c", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	valid := map[string]string{"email": "a@b.c", "password": "long-enough"}
	rr, _ = env.do(t, http.MethodPost, "/api/user/register", "", valid)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr, body = env.do(t, http.MethodPost, "/api/user/register", "", valid)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "user already exists", body["message"])
}

func TestLoginUnknownUserAndBadPassword(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodPost, "/api/user/login", "", map[string]string{"email": "ghost@example.com", "password": "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid credentials", body["message"])

	rr, _ = env.do(t, http.MethodPost, "/api/user/register", "", map[string]string{"email": "bo@example.com", "password": "right-password"})
	require.Equal(t, http.StatusCreated, rr.Code)
	user, err := env.stores.Users.GetByEmail(context.Background(), "bo@example.com")
	require.NoError(t, err)
	require.NoError(t, env.stores.Users.MarkVerified(context.Background(), user.ID))

	rr, _ = env.do(t, http.MethodPost, "/api/user/login", "", map[string]string{"email": "bo@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerifyEmailRejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodGet, "/api/user/verify?token=unknown-token", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "User not found or already verified", body["message"])

	rr, _ = env.do(t, http.MethodGet, "/api/user/verify", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
