package middleware

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"Marketplace/internal/metrics"
	"Marketplace/internal/model"
	"Marketplace/internal/service"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "name": "Test User", "email": sub + "@example.com", "exp": exp.Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// мок для ProfileEnsurer
type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) EnsureProfile(ctx context.Context, subjectID string, d service.ProfileDefaults) (*model.Profile, error) {
	args := m.Called(ctx, subjectID, d)
	if p, ok := args.Get(0).(*model.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ ProfileEnsurer = (*mockProfiles)(nil)

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(context.Context, string) (*auth.Identity, error) { return nil, s.err }

// principalEcho отвечает 200 и subject:role, либо 299 для анонимного запроса.
var principalEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.WriteHeader(299)
		return
	}
	_, _ = w.Write([]byte(p.SubjectID + ":" + p.Role))
})

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var b ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &b); err != nil {
		t.Fatalf("error body is not json: %q", rr.Body.String())
	}
	return b
}

func TestWithAuth_ValidTokenSetsPrincipal(t *testing.T) {
	profiles := new(mockProfiles)
	profiles.On("EnsureProfile", mock.Anything, "u-77", service.ProfileDefaults{FullName: "Test User"}).
		Return(&model.Profile{ID: "u-77", Role: model.RoleAdmin}, nil).Once()

	h := WithAuth(auth.NewJWTVerifier(testSecret, "", ""), profiles, metrics.Nop{})(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-77", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-77:admin", rr.Body.String())
	profiles.AssertExpectations(t)
}

func TestWithAuth_NoHeaderLeavesAnonymous(t *testing.T) {
	profiles := new(mockProfiles)
	h := WithAuth(auth.NewJWTVerifier(testSecret, "", ""), profiles, metrics.Nop{})(principalEcho)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 299, rr.Code)
	profiles.AssertNotCalled(t, "EnsureProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithAuth_Rejects(t *testing.T) {
	cases := map[string]string{
		"wrong secret": "Bearer " + signToken(t, "secret-A", "u1", time.Now().Add(time.Hour)),
		"expired":      "Bearer " + signToken(t, testSecret, "u1", time.Now().Add(-time.Hour)),
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			profiles := new(mockProfiles)
			h := WithAuth(auth.NewJWTVerifier(testSecret, "", ""), profiles, metrics.Nop{})(principalEcho)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, apperr.KindUnauthenticated, decodeError(t, rr).Kind)
			profiles.AssertNotCalled(t, "EnsureProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestWithAuth_ProviderTimeoutIs503(t *testing.T) {
	v := stubVerifier{err: apperr.Wrap(apperr.KindUnavailable, "identity provider timeout", context.DeadlineExceeded)}
	h := WithAuth(v, new(mockProfiles), metrics.Nop{})(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.True(t, decodeError(t, rr).Retryable)
}

func TestWithAuth_ProfileStorageFailureIs500(t *testing.T) {
	profiles := new(mockProfiles)
	profiles.On("EnsureProfile", mock.Anything, "u1", mock.Anything).
		Return(nil, apperr.Storage("failed to read profile", errors.New("conn reset"))).Once()
	h := WithAuth(auth.NewJWTVerifier(testSecret, "", ""), profiles, metrics.Nop{})(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u1", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, apperr.KindStorage, body.Kind)
	assert.NotContains(t, rr.Body.String(), "conn reset")
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(model.RoleAdmin)(principalEcho)

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rr
	}

	rr := serve(context.Background())
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	rr = serve(auth.WithPrincipal(context.Background(), auth.Principal{SubjectID: "u", Role: model.RoleUser}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apperr.KindForbidden, decodeError(t, rr).Kind)

	rr = serve(auth.WithPrincipal(context.Background(), auth.Principal{SubjectID: "a", Role: model.RoleAdmin}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuth_AnyRole(t *testing.T) {
	h := RequireAuth(principalEcho)
	rr := httptest.NewRecorder()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{SubjectID: "u", Role: model.RoleUser})
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithIdentity_VerifiesWithoutProfile(t *testing.T) {
	h := WithIdentity(auth.NewJWTVerifier(testSecret, "", ""), metrics.Nop{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				w.WriteHeader(299)
				return
			}
			id, _ := IdentityFromContext(r.Context())
			_, hasProfile := ProfileFromContext(r.Context())
			assert.False(t, hasProfile)
			_, _ = w.Write([]byte(p.SubjectID + ":" + p.Role + ":" + id.Name))
		}))

	req := httptest.NewRequest(http.MethodPost, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "fresh", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fresh::Test User", rr.Body.String())

	// без заголовка запрос анонимный
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/profile", nil))
	assert.Equal(t, 299, rr.Code)

	// чужая подпись отклоняется
	req = httptest.NewRequest(http.MethodPost, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "fresh", time.Now().Add(time.Hour)))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
