package common

import (
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"membership-app-go/internal/auth"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/internal/transport/httpserver/middleware"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.PhoneNumber, validation.Length(9, 16)),
		validation.Field(&r.FirstName, validation.Length(0, 150)),
		validation.Field(&r.LastName, validation.Length(0, 150)),
		validation.Field(&r.Password, validation.Required, validation.Length(userdomain.MinPasswordLength, 128)),
	)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	UserType    string     `json:"user_type"`
	IsVerified  bool       `json:"is_verified"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func ToUserResponse(user userdomain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		UserType:    user.UserType,
		IsVerified:  user.IsVerified,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// Register creates a member account and signs the caller in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Users.Register(r.Context(), userdomain.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		UserType:    userdomain.TypeMember,
	})
	if err != nil {
		WriteDomainError(w, h.log, "auth.register", err, "username", req.Username)
		return
	}

	h.writeToken(w, http.StatusCreated, *user)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteDomainError(w, h.log, "auth.login", err, "username", strings.TrimSpace(req.Username))
		return
	}

	h.writeToken(w, http.StatusOK, *user)
}

func (h *Handlers) writeToken(w http.ResponseWriter, status int, user userdomain.User) {
	token, expiresAt, err := h.Tokens.Issue(auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		UserType: user.UserType,
	})
	if err != nil {
		h.log.InternalError("auth.token: issue failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        ToUserResponse(user),
	})
}

// Logout records the logout and revokes the presented token until it expires.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if h.Revocations != nil && user.TokenID != "" {
		ttl := time.Until(user.TokenExpiresAt)
		if err := h.Revocations.Revoke(r.Context(), user.TokenID, ttl); err != nil {
			h.log.InternalError("auth.logout: revoke failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
	}

	if err := h.Users.Logout(r.Context(), user.ID); err != nil {
		WriteDomainError(w, h.log, "auth.logout", err, "user_id", user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	user, err := h.Users.Get(r.Context(), current.ID)
	if err != nil {
		WriteDomainError(w, h.log, "auth.me", err, "user_id", current.ID)
		return
	}

	writeJSON(w, http.StatusOK, ToUserResponse(*user))
}
