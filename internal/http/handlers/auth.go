package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/domain"
	"server/internal/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// AuthRegister creates an account. The hashed secret never appears in the
// response; duplicates map to 409.
func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name, email and password are required")
		return
	}

	_, err := a.Auth.Register(r.Context(), req.Name, req.Email, req.Password, domain.UserRole(req.Role))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			a.error(w, http.StatusConflict, "duplicate_email", domain.ErrDuplicateEmail.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("register failed")
		a.error(w, http.StatusInternalServerError, "internal", middleware.Localize(r.Context(), middleware.MsgServerError))
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": middleware.Localize(r.Context(), middleware.MsgAccountCreated),
	})
}

// AuthLogin verifies credentials and returns a session token. Whatever went
// wrong with the credentials, the answer is the same generic 401, so the
// endpoint cannot be used to enumerate accounts.
func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	token, user, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			a.error(w, http.StatusUnauthorized, "unauthorized", middleware.Localize(r.Context(), middleware.MsgInvalidCredentials))
			return
		}
		a.Logger.Error().Err(err).Msg("login failed")
		a.error(w, http.StatusInternalServerError, "internal", middleware.Localize(r.Context(), middleware.MsgServerError))
		return
	}

	a.json(w, http.StatusOK, loginResponse{Token: token, User: toUserDTO(user)})
}

// AuthVerify checks a token passed in the body and returns the fresh
// identity it resolves to.
func (a *App) AuthVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "token required")
		return
	}

	user, err := a.Auth.ResolveToken(r.Context(), req.Token)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", middleware.Localize(r.Context(), middleware.MsgUnauthenticated))
		return
	}

	a.json(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// Me returns the authenticated user. The route runs behind Authenticate +
// RequireAuth, so a missing context user is a wiring bug, not a client error.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", middleware.Localize(r.Context(), middleware.MsgUnauthenticated))
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// AuthLogout is advisory: tokens are stateless, so the client discards its
// copy and the server has nothing to revoke.
func (a *App) AuthLogout(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"ok": true})
}
