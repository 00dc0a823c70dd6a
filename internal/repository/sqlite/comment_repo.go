package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// commentRepository implements repository.CommentRepository for SQLite.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, theory_id, author_id, content, posted_at, updated_at, anonymous`

// Create creates a new comment under an existing theory.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "theories", comment.TheoryID)
		if err != nil {
			return fmt.Errorf("failed to check theory: %w", err)
		}
		if !ok {
			return domain.ErrTheoryNotFound
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO comments (theory_id, author_id, content, posted_at, updated_at, anonymous)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			comment.TheoryID,
			comment.AuthorID,
			comment.Content,
			formatTime(comment.PostedAt),
			formatTime(comment.UpdatedAt),
			boolToInt(comment.Anonymous),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to create comment: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		comment.ID = id
		return nil
	})
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
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
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, anonymous = ?, updated_at = ? WHERE id = ?`,
		comment.Content,
		boolToInt(comment.Anonymous),
		formatTime(comment.UpdatedAt),
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// ListByTheory returns the comments of a theory in creation order.
func (r *commentRepository) ListByTheory(ctx context.Context, theoryID int64) ([]*domain.Comment, error) {
	comments := []*domain.Comment{}
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "theories", theoryID)
		if err != nil {
			return fmt.Errorf("failed to check theory: %w", err)
		}
		if !ok {
			return domain.ErrTheoryNotFound
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE theory_id = ? ORDER BY id`,
			theoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			comment, err := scanComment(rows)
			if err != nil {
				return fmt.Errorf("failed to scan comment: %w", err)
			}
			comments = append(comments, comment)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Count returns the number of comments.
func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	comment := &domain.Comment{}
	var postedAt, updatedAt string
	var anonymous int

	err := row.Scan(
		&comment.ID,
		&comment.TheoryID,
		&comment.AuthorID,
		&comment.Content,
		&postedAt,
		&updatedAt,
		&anonymous,
	)
	if err != nil {
		return nil, err
	}

	comment.Anonymous = anonymous != 0
	if comment.PostedAt, err = parseTime(postedAt); err != nil {
		return nil, err
	}
	if comment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return comment, nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
