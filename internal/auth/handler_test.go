package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/contacts-api/internal/httputil"
)

func newTestRouter(f *serviceFixture) http.Handler {
	h := NewHandler(f.svc)
	mw := NewMiddleware(f.svc)

	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/confirmed_email/{token}", h.VerifyEmail)
	r.Post("/password-reset/request", h.RequestPasswordReset)
	r.Get("/password-reset/verify/{token}", h.VerifyResetToken)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	r.With(mw.RequireAuth).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		httputil.RespondJSON(w, u, http.StatusOK)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/auth/register",
		`{"username":"u1","email":"u1@example.test","password":"pw1-secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hashed_password")
	f.svc.Wait()

	rec = do(t, router, http.MethodPost, "/auth/register",
		`{"username":"u2","email":"u1@example.test","password":"pw1-secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodPost, "/auth/register", `{"username":"u3","email":"bad","password":"pw1-secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeValidationFailed, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodPost, "/auth/login", `{"email":"u1@example.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidCredentials, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodPost, "/auth/login", `{"email":"u1@example.test","password":"pw1-secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens AuthTokens
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
	assert.Equal(t, "bearer", tokens.TokenType)

	rec = do(t, router, http.MethodGet, "/me", "", "Authorization", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"u1"`)

	rec = do(t, router, http.MethodPost, "/auth/refresh?refresh_token="+tokens.RefreshToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = do(t, router, http.MethodPost, "/auth/logout", `{"refresh_token":"`+tokens.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/refresh", `{"refresh_token":"`+tokens.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRefreshToken, decodeError(t, rec).Code)
}

func TestHandler_VerifyEmail(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)
	f.register(t, "u1", "u1@example.test", "pw1")
	token := f.email.last(t, "verification")

	rec := do(t, router, http.MethodGet, "/auth/confirmed_email/"+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "email confirmed")

	rec = do(t, router, http.MethodGet, "/auth/confirmed_email/"+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already confirmed")

	rec = do(t, router, http.MethodGet, "/auth/confirmed_email/garbage", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ghost, err := f.svc.tokens.IssueEmailToken("ghost@example.test")
	require.NoError(t, err)
	rec = do(t, router, http.MethodGet, "/auth/confirmed_email/"+ghost, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PasswordReset(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)
	f.register(t, "u1", "u1@example.test", "pw1")

	rec := do(t, router, http.MethodPost, "/password-reset/request", `{"email":"nobody@example.test"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/password-reset/request", `{"email":"u1@example.test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	f.svc.Wait()
	token := f.email.last(t, "reset")

	rec = do(t, router, http.MethodGet, "/password-reset/verify/"+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	body := `{"token":"` + token + `","new_password":"pw2-secret"}`
	rec = do(t, router, http.MethodPost, "/password-reset/confirm", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/password-reset/confirm", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidResetToken, decodeError(t, rec).Code)

	rec = do(t, router, http.MethodGet, "/password-reset/verify/"+token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := f.svc.Login(context.Background(), "u1@example.test", "pw2-secret")
	assert.NoError(t, err)
}

func TestMiddleware_RequireAuth(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)
	f.register(t, "u1", "u1@example.test", "pw1")

	tokens, err := f.svc.Login(context.Background(), "u1@example.test", "pw1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "missing header", wantCode: http.StatusUnauthorized, wantErr: httputil.CodeMissingAuth},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized, wantErr: httputil.CodeInvalidAuthHeader},
		{name: "garbage token", header: "Bearer abc", wantCode: http.StatusUnauthorized, wantErr: httputil.CodeInvalidToken},
		{name: "refresh token", header: "Bearer " + tokens.RefreshToken, wantCode: http.StatusUnauthorized, wantErr: httputil.CodeInvalidToken},
		{name: "access token", header: "Bearer " + tokens.AccessToken, wantCode: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + tokens.AccessToken, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header []string
			if tt.header != "" {
				header = []string{"Authorization", tt.header}
			}
			rec := do(t, router, http.MethodGet, "/me", "", header...)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
			}
		})
	}
}

func TestHandler_PasswordOverByteLimit(t *testing.T) {
	f := newServiceFixture(t)
	router := newTestRouter(f)
	// 40 characters pass the length tag but encode to 80 bytes
	long := strings.Repeat("é", 40)

	rec := do(t, router, http.MethodPost, "/auth/register",
		`{"username":"u1","email":"u1@example.test","password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeValidationFailed, decodeError(t, rec).Code)
	assert.Equal(t, 0, f.users.count())

	u := f.register(t, "u1", "u1@example.test", "pw1")
	token, err := f.svc.CreateResetToken(context.Background(), u)
	require.NoError(t, err)

	rec = do(t, router, http.MethodPost, "/password-reset/confirm",
		`{"token":"`+token+`","new_password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeValidationFailed, decodeError(t, rec).Code)

	// The rejected attempt leaves the token redeemable
	rec = do(t, router, http.MethodPost, "/password-reset/confirm",
		`{"token":"`+token+`","new_password":"pw2-secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
