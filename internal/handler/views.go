package handler

import (
	"context"
	"time"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// =============================================================================
// Response Views
// =============================================================================

// UserView is the public representation of a user.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorView names the author of a post. ID is omitted for anonymous posts.
type AuthorView struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// TheoryView is the public representation of a theory.
type TheoryView struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Status       domain.Status `json:"status"`
	Author       AuthorView    `json:"author"`
	EvidenceURLs []string      `json:"evidence_urls"`
	PostedAt     time.Time     `json:"posted_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Anonymous    bool          `json:"anonymous"`
	CommentCount int           `json:"comment_count"`
	Comments     []CommentView `json:"comments,omitempty"`
}

// CommentView is the public representation of a comment.
type CommentView struct {
	ID        int64      `json:"id"`
	TheoryID  int64      `json:"theory_id"`
	Author    AuthorView `json:"author"`
	Content   string     `json:"content"`
	PostedAt  time.Time  `json:"posted_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Anonymous bool       `json:"anonymous"`
}

// TheoryPageView is one page of a theory listing.
type TheoryPageView struct {
	Items      []TheoryView `json:"items"`
	TotalCount int          `json:"total_count"`
	TotalPages int          `json:"total_pages"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
}

// AuthView is returned by login.
type AuthView struct {
	User    UserView `json:"user"`
	Token   string   `json:"token"`
	Created bool     `json:"created"`
}

func newUserView(u *domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Anonymous: u.Anonymous,
		CreatedAt: u.CreatedAt,
	}
}

// authorNames resolves usernames once per request.
type authorNames struct {
	lookup func(ctx context.Context, id int64) (*domain.User, error)
	names  map[int64]string
}

func (h *Handler) newAuthorNames() *authorNames {
	return &authorNames{lookup: h.users.Get, names: make(map[int64]string)}
}

func (a *authorNames) author(ctx context.Context, authorID int64, anonymous bool) AuthorView {
	if anonymous {
		return AuthorView{Name: domain.AnonymousDisplayName}
	}

	name, ok := a.names[authorID]
	if !ok {
		if user, err := a.lookup(ctx, authorID); err == nil {
			name = user.Username
		}
		a.names[authorID] = name
	}

	id := authorID
	return AuthorView{ID: &id, Name: name}
}

func (a *authorNames) theory(ctx context.Context, t *domain.Theory) TheoryView {
	evidence := t.EvidenceURLs
	if evidence == nil {
		evidence = []string{}
	}
	return TheoryView{
		ID:           t.ID,
		Title:        t.Title,
		Content:      t.Content,
		Status:       t.Status,
		Author:       a.author(ctx, t.AuthorID, t.Anonymous),
		EvidenceURLs: evidence,
		PostedAt:     t.PostedAt,
		UpdatedAt:    t.UpdatedAt,
		Anonymous:    t.Anonymous,
		CommentCount: t.CommentCount(),
	}
}

func (a *authorNames) theories(ctx context.Context, theories []*domain.Theory) []TheoryView {
	views := make([]TheoryView, 0, len(theories))
	for _, t := range theories {
		views = append(views, a.theory(ctx, t))
	}
	return views
}

func (a *authorNames) comment(ctx context.Context, c *domain.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		TheoryID:  c.TheoryID,
		Author:    a.author(ctx, c.AuthorID, c.Anonymous),
		Content:   c.Content,
		PostedAt:  c.PostedAt,
		UpdatedAt: c.UpdatedAt,
		Anonymous: c.Anonymous,
	}
}

func (a *authorNames) comments(ctx context.Context, comments []*domain.Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, a.comment(ctx, c))
	}
	return views
}
