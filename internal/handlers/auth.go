package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
)

const maxMultipartMemory = 32 << 20

// AuthHandler implements account and session endpoints.
type AuthHandler struct {
	Media    MediaService
	Sessions SessionManager
	Limiter  RateLimiter
}

// Register handles POST /api/v1/auth/register. The body is multipart: text
// fields plus a mandatory avatar image and an optional cover image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "multipart form expected"})
		return
	}
	defer cleanupMultipart(r)

	email := strings.TrimSpace(r.FormValue("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("register rejected", "reason", "invalid email")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}
	if len(r.FormValue("password")) < 8 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	in := media.RegisterInput{
		Username: r.FormValue("username"),
		Email:    email,
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}

	avatar, closeAvatar, ok := formUpload(r, "avatar")
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "avatar image is required"})
		return
	}
	defer closeAvatar()
	in.Avatar = avatar

	if cover, closeCover, ok := formUpload(r, "coverImage"); ok {
		defer closeCover()
		in.Cover = &cover
	}

	user, err := h.Media.Register(ctx, in)
	if err != nil {
		logger.Warn("register failed", "username", in.Username, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, accountResponse{User: projectAccount(user)})
}

// Login handles POST /api/v1/auth/login. The login field matches either the
// username or the email address.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "login and password are required"})
		return
	}

	tokens, user, err := h.Sessions.Login(ctx, req.Login, req.Password)
	if err != nil {
		logger.Warn("login rejected", "login", req.Login, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens, User: projectAccount(user)})
}

// Refresh handles POST /api/v1/auth/refresh: it exchanges the refresh token
// for a fresh pair, rotating the session slot.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		logger.Warn("refresh rejected", "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, tokensResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout for an authenticated principal.
// Logging out twice is not an error.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Logout(ctx, PrincipalFromContext(ctx)); err != nil {
		logging.FromContext(ctx).Error("logout failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ChangePassword handles POST /api/v1/auth/password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.NewPassword) < 8 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	userID := PrincipalFromContext(ctx)
	if err := h.Media.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		logger.Warn("change password rejected", "userId", userID, "error", err)
		respondError(ctx, w, err)
		return
	}

	// A password change invalidates the active session chain.
	if err := h.Sessions.Logout(ctx, userID); err != nil {
		logger.Error("revoke session after password change", "userId", userID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	User   accountProjection    `json:"user"`
}

type tokensResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
}

type accountResponse struct {
	User accountProjection `json:"user"`
}

type accountProjection struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	CoverURL  string    `json:"coverUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func projectAccount(user models.User) accountProjection {
	return accountProjection{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		CoverURL:  user.CoverURL,
		CreatedAt: user.CreatedAt,
	}
}

// formUpload pulls one file out of a parsed multipart form.
func formUpload(r *http.Request, field string) (media.Upload, func(), bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return media.Upload{}, nil, false
	}
	return media.Upload{Name: header.Filename, Content: file}, func() { _ = file.Close() }, true
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
