package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/prn-tf/theory-forum/internal/auth"
	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/query"
	"github.com/prn-tf/theory-forum/internal/service"
)

type createTheoryRequest struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Status       *string  `json:"status"`
	EvidenceURLs []string `json:"evidence_urls"`
	Anonymous    *bool    `json:"anonymous"`
}

// updateTheoryRequest distinguishes absent fields (nil) from provided ones.
// An explicit empty evidence_urls list clears the links.
type updateTheoryRequest struct {
	Title        *string   `json:"title"`
	Content      *string   `json:"content"`
	Status       *string   `json:"status"`
	EvidenceURLs *[]string `json:"evidence_urls"`
	Anonymous    *bool     `json:"anonymous"`
}

func parseStatus(raw *string) (*domain.Status, error) {
	if raw == nil {
		return nil, nil
	}
	status, err := domain.ParseStatus(*raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// parseQueryParams reads status, keyword, hot, page and size.
func parseQueryParams(values url.Values) (query.Params, error) {
	params := query.Params{Keyword: values.Get("keyword")}

	if raw := values.Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return params, err
		}
		params.Status = &status
	}

	if raw := values.Get("hot"); raw != "" {
		hot, err := strconv.ParseBool(raw)
		if err != nil {
			return params, badRequest("invalid hot %q", raw)
		}
		params.Hot = hot
	}

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"page", &params.Page},
		{"size", &params.Size},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, badRequest("invalid %s %q", p.name, raw)
		}
		*p.dst = &n
	}

	return params, nil
}

func (h *Handler) handleQueryTheories(w http.ResponseWriter, r *http.Request) {
	params, err := parseQueryParams(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.theories.Query(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TheoryPageView{
		Items:      h.newAuthorNames().theories(r.Context(), page.Items),
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
		Page:       page.Page,
		Size:       page.Size,
	})
}

func (h *Handler) handleCreateTheory(w http.ResponseWriter, r *http.Request) {
	var req createTheoryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	theory, err := h.theories.Create(r.Context(), service.CreateTheoryInput{
		AuthorID:     auth.UserID(r.Context()),
		Title:        req.Title,
		Content:      req.Content,
		Status:       status,
		EvidenceURLs: req.EvidenceURLs,
		Anonymous:    req.Anonymous,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.newAuthorNames().theory(r.Context(), theory))
}

// handleGetTheory returns a theory together with its comments.
func (h *Handler) handleGetTheory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	theory, err := h.theories.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comments, err := h.comments.ListByTheory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	names := h.newAuthorNames()
	view := names.theory(r.Context(), theory)
	view.Comments = names.comments(r.Context(), comments)
	view.CommentCount = len(view.Comments)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdateTheory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateTheoryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	input := service.UpdateTheoryInput{
		ID:        id,
		CallerID:  auth.UserID(r.Context()),
		Title:     req.Title,
		Content:   req.Content,
		Status:    status,
		Anonymous: req.Anonymous,
	}
	if req.EvidenceURLs != nil {
		input.EvidenceURLs = *req.EvidenceURLs
		if input.EvidenceURLs == nil {
			input.EvidenceURLs = []string{}
		}
	}

	theory, err := h.theories.Update(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAuthorNames().theory(r.Context(), theory))
}

func (h *Handler) handleDeleteTheory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.theories.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
