package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-app-go/internal/auth"
	"membership-app-go/internal/config"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/pkg/logger"
)

type fakeAccounts struct {
	users map[string]*userdomain.User
}

func (f fakeAccounts) Get(_ context.Context, id string) (*userdomain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

type authFixture struct {
	tokens      *auth.TokenIssuer
	revocations *auth.MemoryRevocations
	accounts    fakeAccounts
	handler     http.Handler
	seen        *User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	tokens, err := auth.NewTokenIssuer("test-secret", "membership-app", time.Hour)
	require.NoError(t, err)

	f := &authFixture{
		tokens:      tokens,
		revocations: auth.NewMemoryRevocations(),
		accounts: fakeAccounts{users: map[string]*userdomain.User{
			"u-staff":    {ID: "u-staff", UserType: userdomain.TypeStaff, IsActive: true},
			"u-member":   {ID: "u-member", UserType: userdomain.TypeMember, IsActive: true},
			"u-disabled": {ID: "u-disabled", UserType: userdomain.TypeMember, IsActive: false},
			"u-demoted":  {ID: "u-demoted", UserType: userdomain.TypeMember, IsActive: true},
		}},
	}
	jwtAuth := NewJWTAuth(config.AuthConfig{}, f.tokens, f.revocations, f.accounts, logger.Nop())
	f.handler = jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if ok {
			f.seen = &user
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	return f
}

func (f *authFixture) token(t *testing.T, id, userType string) (string, auth.Identity) {
	t.Helper()
	token, _, err := f.tokens.Issue(auth.Identity{ID: id, Username: id, UserType: userType})
	require.NoError(t, err)
	identity, err := f.tokens.Parse(token)
	require.NoError(t, err)
	return token, identity
}

func (f *authFixture) do(token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	f := newAuthFixture(t)
	token, identity := f.token(t, "u-staff", userdomain.TypeStaff)

	rec := f.do(token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, "u-staff", f.seen.ID)
	assert.Equal(t, userdomain.TypeStaff, f.seen.UserType)
	assert.Equal(t, identity.TokenID, f.seen.TokenID)
}

func TestJWTAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	f := newAuthFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do("").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do("not-a-jwt").Code)
	assert.Nil(t, f.seen)
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	token, identity := f.token(t, "u-member", userdomain.TypeMember)
	require.NoError(t, f.revocations.Revoke(context.Background(), identity.TokenID, time.Hour))

	rec := f.do(token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, f.seen)
}

func TestJWTAuthRefusesDeactivatedAccount(t *testing.T) {
	f := newAuthFixture(t)
	token, _ := f.token(t, "u-disabled", userdomain.TypeMember)

	rec := f.do(token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account_inactive")
}

func TestJWTAuthRejectsUnknownAccount(t *testing.T) {
	f := newAuthFixture(t)
	token, _ := f.token(t, "u-deleted", userdomain.TypeAdmin)

	assert.Equal(t, http.StatusUnauthorized, f.do(token).Code)
}

func TestJWTAuthTakesUserTypeFromAccount(t *testing.T) {
	f := newAuthFixture(t)
	token, _ := f.token(t, "u-demoted", userdomain.TypeAdmin)

	rec := f.do(token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, userdomain.TypeMember, f.seen.UserType)
}

func TestJWTAuthRevocationStoreUnavailable(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("test-secret", "membership-app", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(auth.Identity{ID: "u-staff", UserType: userdomain.TypeStaff})
	require.NoError(t, err)

	jwtAuth := NewJWTAuth(config.AuthConfig{}, tokens, failingRevocations{}, nil, logger.Nop())
	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJWTAuthSkipModeUsesMockUser(t *testing.T) {
	jwtAuth := NewJWTAuth(config.AuthConfig{
		SkipAuth:     true,
		MockUserID:   "dev-1",
		MockUserName: "dev",
		MockUserType: userdomain.TypeAdmin,
	}, nil, nil, nil, logger.Nop())

	var seen User
	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "dev-1", seen.ID)
	assert.Equal(t, userdomain.TypeAdmin, seen.UserType)
}

func TestRequireUserTypes(t *testing.T) {
	guard := RequireUserTypes(userdomain.TypeAdmin, userdomain.TypeStaff)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		user   *User
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "member", user: &User{ID: "m", UserType: userdomain.TypeMember}, status: http.StatusForbidden},
		{name: "staff", user: &User{ID: "s", UserType: userdomain.TypeStaff}, status: http.StatusNoContent},
		{name: "admin", user: &User{ID: "a", UserType: userdomain.TypeAdmin}, status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}
