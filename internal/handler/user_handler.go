package handler

import (
	"net/http"

	"github.com/prn-tf/theory-forum/internal/auth"
	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/service"
)

// =============================================================================
// Session Handlers
// =============================================================================

type loginRequest struct {
	Username  string `json:"username"`
	Secret    string `json:"secret"`
	Anonymous *bool  `json:"anonymous"`
}

type anonymousRequest struct {
	Anonymous *bool `json:"anonymous"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.users.RegisterOrLogin(r.Context(), service.RegisterOrLoginInput{
		Username:  req.Username,
		Secret:    req.Secret,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, AuthView{User: newUserView(out.User), Token: out.Token, Created: out.Created})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())
	if authCtx == nil {
		h.writeError(w, r, domain.ErrUnauthenticated)
		return
	}

	if err := h.tokens.Revoke(r.Context(), authCtx.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserID(r.Context())
	if callerID == 0 {
		h.writeError(w, r, domain.ErrUnauthenticated)
		return
	}

	user, err := h.users.Get(r.Context(), callerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handler) handleSetAnonymous(w http.ResponseWriter, r *http.Request) {
	var req anonymousRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Anonymous == nil {
		h.writeError(w, r, domain.NewValidationError("anonymous", "is required"))
		return
	}

	user, err := h.users.SetAnonymous(r.Context(), auth.UserID(r.Context()), *req.Anonymous)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// =============================================================================
// User Handlers
// =============================================================================

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleUserTheories lists a user's theories, newest first. Anonymous
// theories are only listed for their own author.
func (h *Handler) handleUserTheories(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	theories, err := h.theories.ByUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if auth.UserID(r.Context()) != id {
		visible := theories[:0]
		for _, t := range theories {
			if !t.Anonymous {
				visible = append(visible, t)
			}
		}
		theories = visible
	}

	writeJSON(w, http.StatusOK, h.newAuthorNames().theories(r.Context(), theories))
}
