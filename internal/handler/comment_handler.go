package handler

import (
	"net/http"

	"github.com/prn-tf/theory-forum/internal/auth"
	"github.com/prn-tf/theory-forum/internal/service"
)

type commentRequest struct {
	Content   string `json:"content"`
	Anonymous *bool  `json:"anonymous"`
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	theoryID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	comments, err := h.comments.ListByTheory(r.Context(), theoryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAuthorNames().comments(r.Context(), comments))
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	theoryID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req commentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), service.CreateCommentInput{
		TheoryID:  theoryID,
		AuthorID:  auth.UserID(r.Context()),
		Content:   req.Content,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.newAuthorNames().comment(r.Context(), comment))
}

func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req commentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), service.UpdateCommentInput{
		ID:        id,
		CallerID:  auth.UserID(r.Context()),
		Content:   req.Content,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAuthorNames().comment(r.Context(), comment))
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.comments.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
