package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// commentRepository implements repository.CommentRepository.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new PostgreSQL comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, theory_id, author_id, content, posted_at, updated_at, anonymous`

// Create creates a new comment under an existing theory.
// The shared row lock on the theory orders this insert against a concurrent delete.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var parent int64
		err := tx.QueryRow(ctx, `SELECT id FROM theories WHERE id = $1 FOR SHARE`, comment.TheoryID).Scan(&parent)
		if err != nil {
			if isNoRows(err) {
				return domain.ErrTheoryNotFound
			}
			return fmt.Errorf("failed to lock theory: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO comments (theory_id, author_id, content, posted_at, updated_at, anonymous)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`,
			comment.TheoryID,
			comment.AuthorID,
			comment.Content,
			comment.PostedAt.UTC(),
			comment.UpdatedAt.UTC(),
			comment.Anonymous,
		).Scan(&comment.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	comment, err := scanComment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

// Update updates content, anonymity and UpdatedAt.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE comments SET content = $2, anonymous = $3, updated_at = $4 WHERE id = $1`,
		comment.ID,
		comment.Content,
		comment.Anonymous,
		comment.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// ListByTheory returns the comments of a theory in creation order.
func (r *commentRepository) ListByTheory(ctx context.Context, theoryID int64) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.WithTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		var parent int64
		err := tx.QueryRow(ctx, `SELECT id FROM theories WHERE id = $1`, theoryID).Scan(&parent)
		if err != nil {
			if isNoRows(err) {
				return domain.ErrTheoryNotFound
			}
			return fmt.Errorf("failed to check theory: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE theory_id = $1 ORDER BY id`,
			theoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}

		comments, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Comment, error) {
			return scanComment(row)
		})
		if err != nil {
			return fmt.Errorf("failed to scan comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	return comments, nil
}

// Count returns the number of comments.
func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	comment := &domain.Comment{}
	err := row.Scan(
		&comment.ID,
		&comment.TheoryID,
		&comment.AuthorID,
		&comment.Content,
		&comment.PostedAt,
		&comment.UpdatedAt,
		&comment.Anonymous,
	)
	if err != nil {
		return nil, err
	}
	comment.PostedAt = comment.PostedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	return comment, nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
