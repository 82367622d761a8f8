package middleware

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"Marketplace/internal/metrics"
	"Marketplace/internal/model"
	"Marketplace/internal/service"
	"context"
	"errors"
	"net/http"
)

// ProfileEnsurer — get-or-create профиля по subject id.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, subjectID string, d service.ProfileDefaults) (*model.Profile, error)
}

type ctxKey int

const (
	profileKey ctxKey = iota
	identityKey
)

// ProfileFromContext возвращает профиль текущего вызывающего.
func ProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*model.Profile)
	return p, ok && p != nil
}

// IdentityFromContext возвращает проверенную внешнюю идентичность.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// verifyRequest проверяет bearer-токен. Без заголовка возвращает (nil, true):
// запрос идёт дальше анонимно. false означает, что ответ с ошибкой уже записан.
func verifyRequest(w http.ResponseWriter, r *http.Request, v auth.Verifier, rec metrics.Recorder) (*auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, true
	}

	token, err := auth.ExtractBearer(header)
	if err != nil {
		rec.RecordAuthFailure("malformed_header")
		WriteError(w, r, err)
		return nil, false
	}

	identity, err := v.Verify(r.Context(), token)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnavailable:
			rec.RecordAuthFailure("provider_unavailable")
			WriteError(w, r, err)
		case apperr.KindUnauthenticated:
			rec.RecordAuthFailure("invalid_token")
			WriteError(w, r, err)
		default:
			rec.RecordAuthFailure("provider_error")
			WriteError(w, r, apperr.Wrap(apperr.KindInternal, "token verification failed", err))
		}
		return nil, false
	}
	return identity, true
}

// WithIdentity только проверяет токен, профиль не трогает. Principal получает
// subject id без роли; маршруты с RequireRole за ним не пропустят никого.
func WithIdentity(v auth.Verifier, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := verifyRequest(w, r, v, rec)
			if !ok {
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := auth.WithPrincipal(r.Context(), auth.Principal{SubjectID: identity.Subject})
			ctx = context.WithValue(ctx, identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithAuth разбирает bearer-токен, если он есть. Без заголовка запрос идёт
// дальше анонимно; с невалидным токеном отклоняется 401. После проверки
// профиль создаётся при первом обращении, роль берётся из него.
func WithAuth(v auth.Verifier, profiles ProfileEnsurer, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := verifyRequest(w, r, v, rec)
			if !ok {
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			profile, err := profiles.EnsureProfile(r.Context(), identity.Subject, service.ProfileDefaults{FullName: identity.Name})
			if err != nil {
				rec.RecordAuthFailure("profile_unavailable")
				if apperr.KindOf(err) == apperr.KindUnavailable {
					WriteError(w, r, err)
					return
				}
				// профиль не прочитан и не создан: запрос не обслуживаем
				writeErrorStatus(w, r, err, http.StatusInternalServerError)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{SubjectID: identity.Subject, Role: profile.Role})
			ctx = context.WithValue(ctx, profileKey, profile)
			ctx = context.WithValue(ctx, identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth пропускает только запросы с Principal в контексте.
func RequireAuth(next http.Handler) http.Handler {
	return RequireRole()(next)
}

// RequireRole пропускает вызывающего, если его роль входит в roles.
// Пустой список пропускает любого аутентифицированного.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFromContext(r.Context())
			if err := auth.Authorize(p, roles...); err != nil {
				var ae *apperr.Error
				if errors.As(err, &ae) && ae.Kind == apperr.KindUnauthenticated {
					w.Header().Set("WWW-Authenticate", `Bearer realm="marketplace"`)
				}
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
