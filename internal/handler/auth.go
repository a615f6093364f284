package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/model"
)

// AuthBackend is the subset of the backend client the auth routes proxy.
type AuthBackend interface {
	Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// Identifier turns an access token into a user.
type Identifier interface {
	Identify(token string) (model.User, error)
}

type AuthHandler struct {
	backend  AuthBackend
	identity Identifier
	logger   *slog.Logger
}

func NewAuthHandler(b AuthBackend, id Identifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{backend: b, identity: id, logger: logger.With("handler", "auth")}
}

type sessionResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	User         model.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	Year        string `json:"year"`
	Subject     string `json:"subject"`
	CollegeName string `json:"collegeName"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.Role, validation.In(string(model.RoleStudent), string(model.RoleFaculty))),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// session answers a token pair together with the user it identifies.
func (h *AuthHandler) session(w http.ResponseWriter, status int, pair model.TokenPair) {
	user, err := h.identity.Identify(pair.AccessToken)
	if err != nil {
		h.logger.Error("backend issued an unverifiable token", "error", err)
		writeMessage(w, http.StatusBadGateway, "backend issued an unverifiable token")
		return
	}
	writeJSON(w, status, sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := h.backend.Login(r.Context(), model.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, "log in", err)
		return
	}
	h.session(w, http.StatusOK, pair)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	role := req.Role
	if role == "" {
		role = string(model.RoleStudent)
	}
	pair, err := h.backend.Register(r.Context(), model.RegisterRequest{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		Role:        role,
		Department:  req.Department,
		Year:        req.Year,
		Subject:     req.Subject,
		CollegeName: req.CollegeName,
	})
	if err != nil {
		writeError(w, h.logger, "register", err)
		return
	}
	h.session(w, http.StatusCreated, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := h.backend.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.logger, "refresh session", err)
		return
	}
	h.session(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Logout(r.Context()); err != nil {
		writeError(w, h.logger, "log out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := claims.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
