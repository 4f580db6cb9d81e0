package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/middleware"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type fakeAuthSrv struct {
	resp    *models.LoginResponse
	err     error
	lastReq models.LoginRequest
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{resp: &models.LoginResponse{AccessToken: "token", ExpiresIn: 900}}
	handler := NewAuthHandler(srv)
	c, w := newGinContext(http.MethodPost, "/auth/login", map[string]string{"email": "doc@clinic.test", "password": "secret"})
	c.Request.Header.Set("User-Agent", "clinic-test")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "doc@clinic.test", srv.lastReq.Email)
	assert.Equal(t, "clinic-test", srv.lastReq.UserAgent)
	var data models.LoginResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "token", data.AccessToken)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrInvalidCredentials})
	c, w := newGinContext(http.MethodPost, "/auth/login", map[string]string{"email": "doc@clinic.test", "password": "wrong"})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "doc-1", Role: models.RoleDoctor, Email: "doc@clinic.test"})
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.UserInfo
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &info))
	assert.Equal(t, "doc-1", info.ID)
	assert.Equal(t, models.RoleDoctor, info.Role)
}
