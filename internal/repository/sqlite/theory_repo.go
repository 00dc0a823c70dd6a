package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// theoryRepository implements repository.TheoryRepository for SQLite.
// Comment lists are derived from the comments table ordered by id.
type theoryRepository struct {
	db *DB
}

// NewTheoryRepository creates a new SQLite theory repository.
func NewTheoryRepository(db *DB) repository.TheoryRepository {
	return &theoryRepository{db: db}
}

const theoryColumns = `id, title, content, status, author_id, evidence_urls, posted_at, updated_at, anonymous`

// Create creates a new theory.
func (r *theoryRepository) Create(ctx context.Context, theory *domain.Theory) error {
	evidence, err := encodeEvidence(theory.EvidenceURLs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO theories (title, content, status, author_id, evidence_urls, posted_at, updated_at, anonymous)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		theory.Title,
		theory.Content,
		string(theory.Status),
		theory.AuthorID,
		evidence,
		formatTime(theory.PostedAt),
		formatTime(theory.UpdatedAt),
		boolToInt(theory.Anonymous),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to create theory: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	theory.ID = id
	theory.CommentIDs = []int64{}
	if theory.EvidenceURLs == nil {
		theory.EvidenceURLs = []string{}
	}

	return nil
}

// GetByID retrieves a theory with its comment IDs.
func (r *theoryRepository) GetByID(ctx context.Context, id int64) (*domain.Theory, error) {
	var theory *domain.Theory
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		theory, err = getTheory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return theory, nil
}

// Update replaces the mutable fields of a theory.
func (r *theoryRepository) Update(ctx context.Context, theory *domain.Theory) error {
	evidence, err := encodeEvidence(theory.EvidenceURLs)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE theories
			SET title = ?, content = ?, status = ?, evidence_urls = ?, anonymous = ?, updated_at = ?
			WHERE id = ?
		`,
			theory.Title,
			theory.Content,
			string(theory.Status),
			evidence,
			boolToInt(theory.Anonymous),
			formatTime(theory.UpdatedAt),
			theory.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update theory: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return domain.ErrTheoryNotFound
		}

		ids, err := commentIDs(ctx, tx, theory.ID)
		if err != nil {
			return err
		}
		theory.CommentIDs = ids
		return nil
	})
}

// Delete removes a theory and, through the cascading foreign key, its comments.
func (r *theoryRepository) Delete(ctx context.Context, id int64) (int, error) {
	var removed int
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE theory_id = ?`, id).Scan(&removed); err != nil {
			return fmt.Errorf("failed to count comments: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM theories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete theory: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return domain.ErrTheoryNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListAll returns every theory ordered by ID.
func (r *theoryRepository) ListAll(ctx context.Context) ([]*domain.Theory, error) {
	return r.list(ctx, `SELECT `+theoryColumns+` FROM theories ORDER BY id`)
}

// ListByAuthor returns the theories posted by a user ordered by ID.
func (r *theoryRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*domain.Theory, error) {
	return r.list(ctx, `SELECT `+theoryColumns+` FROM theories WHERE author_id = ? ORDER BY id`, authorID)
}

// Count returns the number of theories.
func (r *theoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count theories: %w", err)
	}
	return count, nil
}

// list reads theories and their comment IDs inside one transaction so the
// result is a consistent snapshot.
func (r *theoryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Theory, error) {
	theories := []*domain.Theory{}
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list theories: %w", err)
		}
		defer rows.Close()

		byID := make(map[int64]*domain.Theory)
		for rows.Next() {
			theory, err := scanTheory(rows)
			if err != nil {
				return fmt.Errorf("failed to scan theory: %w", err)
			}
			theories = append(theories, theory)
			byID[theory.ID] = theory
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating theories: %w", err)
		}
		rows.Close()

		if len(theories) == 0 {
			return nil
		}

		links, err := tx.QueryContext(ctx, `SELECT id, theory_id FROM comments ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to list comment links: %w", err)
		}
		defer links.Close()

		for links.Next() {
			var commentID, theoryID int64
			if err := links.Scan(&commentID, &theoryID); err != nil {
				return fmt.Errorf("failed to scan comment link: %w", err)
			}
			if theory, ok := byID[theoryID]; ok {
				theory.CommentIDs = append(theory.CommentIDs, commentID)
			}
		}
		return links.Err()
	})
	if err != nil {
		return nil, err
	}
	return theories, nil
}

func getTheory(ctx context.Context, q queryer, id int64) (*domain.Theory, error) {
	row := q.QueryRowContext(ctx, `SELECT `+theoryColumns+` FROM theories WHERE id = ?`, id)
	theory, err := scanTheory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTheoryNotFound
		}
		return nil, fmt.Errorf("failed to get theory by ID: %w", err)
	}

	if theory.CommentIDs, err = commentIDs(ctx, q, id); err != nil {
		return nil, err
	}
	return theory, nil
}

func commentIDs(ctx context.Context, q queryer, theoryID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM comments WHERE theory_id = ? ORDER BY id`, theoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comment IDs: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan comment ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment IDs: %w", err)
	}
	return ids, nil
}

func scanTheory(row rowScanner) (*domain.Theory, error) {
	theory := &domain.Theory{CommentIDs: []int64{}}
	var status, evidence, postedAt, updatedAt string
	var anonymous int

	err := row.Scan(
		&theory.ID,
		&theory.Title,
		&theory.Content,
		&status,
		&theory.AuthorID,
		&evidence,
		&postedAt,
		&updatedAt,
		&anonymous,
	)
	if err != nil {
		return nil, err
	}

	theory.Status = domain.Status(status)
	theory.Anonymous = anonymous != 0
	if err := json.Unmarshal([]byte(evidence), &theory.EvidenceURLs); err != nil {
		return nil, fmt.Errorf("invalid stored evidence URLs: %w", err)
	}
	if theory.EvidenceURLs == nil {
		theory.EvidenceURLs = []string{}
	}
	if theory.PostedAt, err = parseTime(postedAt); err != nil {
		return nil, err
	}
	if theory.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return theory, nil
}

func encodeEvidence(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence URLs: %w", err)
	}
	return string(data), nil
}

var _ repository.TheoryRepository = (*theoryRepository)(nil)
