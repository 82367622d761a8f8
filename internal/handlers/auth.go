package handlers

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"Marketplace/internal/middleware"
	"Marketplace/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthHandler отдаёт сведения о текущем вызывающем.
type AuthHandler struct {
	Profiles *service.ProfileService
	Logger   *zap.SugaredLogger
}

func NewAuthHandler(profiles *service.ProfileService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{Profiles: profiles, Logger: logger}
}

// MeResponse — ответ GET /auth/me.
type MeResponse struct {
	SubjectID string    `json:"subjectId"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Me возвращает subject id и роль текущего вызывающего.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	resp := MeResponse{SubjectID: p.SubjectID, Role: p.Role}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		resp.Email = id.Email
	}
	if prof, ok := middleware.ProfileFromContext(r.Context()); ok {
		resp.FullName = prof.FullName
		resp.CreatedAt = prof.CreatedAt
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

type ensureProfileRequest struct {
	FullName string `json:"full_name"`
}

// EnsureProfile: явное создание профиля. Имя берётся из тела, иначе из токена.
// Существующий профиль не меняется.
func (h *AuthHandler) EnsureProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var req ensureProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Warnw("EnsureProfile: invalid request body", "error", err)
		middleware.WriteError(w, r, apperr.Validation("body", "invalid JSON"))
		return
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		if id, ok := middleware.IdentityFromContext(r.Context()); ok {
			name = id.Name
		}
	}

	prof, err := h.Profiles.EnsureProfile(r.Context(), p.SubjectID, service.ProfileDefaults{FullName: name})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, prof)
}
