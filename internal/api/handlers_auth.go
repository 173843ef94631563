package api

import (
	"net/http"
	"time"

	"github.com/fastprodman/surveyledger/internal/repos/users"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

// RegisterHandler handles POST /api/register. Admin accounts cannot be
// created over HTTP.
func (h *HandlerProvider) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role := users.Role(req.Role)
	if role == users.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "admin accounts cannot be registered")
		return
	}

	u, err := h.identity.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeToken(w, r, http.StatusCreated, u)
}

// LoginHandler handles POST /api/login.
func (h *HandlerProvider) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeToken(w, r, http.StatusOK, u)
}

func (h *HandlerProvider) writeToken(w http.ResponseWriter, r *http.Request, status int, u users.User) {
	token, expires, err := h.identity.IssueToken(u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, status, tokenResponse{Token: token, ExpiresAt: expires, User: toUserResponse(u)})
}

// CurrentUserHandler handles GET /api/user.
func (h *HandlerProvider) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	u, err := h.identity.Get(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}
