package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// theoryRepository implements repository.TheoryRepository.
// Comment lists are derived from the comments table ordered by id.
type theoryRepository struct {
	db *DB
}

// NewTheoryRepository creates a new PostgreSQL theory repository.
func NewTheoryRepository(db *DB) repository.TheoryRepository {
	return &theoryRepository{db: db}
}

const theoryColumns = `id, title, content, status, author_id, evidence_urls, posted_at, updated_at, anonymous`

// snapshotTx reads several statements against one consistent view.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Create creates a new theory.
func (r *theoryRepository) Create(ctx context.Context, theory *domain.Theory) error {
	if theory.EvidenceURLs == nil {
		theory.EvidenceURLs = []string{}
	}

	query := `
		INSERT INTO theories (title, content, status, author_id, evidence_urls, posted_at, updated_at, anonymous)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		theory.Title,
		theory.Content,
		string(theory.Status),
		theory.AuthorID,
		theory.EvidenceURLs,
		theory.PostedAt.UTC(),
		theory.UpdatedAt.UTC(),
		theory.Anonymous,
	).Scan(&theory.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to create theory: %w", err)
	}

	theory.CommentIDs = []int64{}
	return nil
}

// GetByID retrieves a theory with its comment IDs.
func (r *theoryRepository) GetByID(ctx context.Context, id int64) (*domain.Theory, error) {
	var theory *domain.Theory
	err := r.db.WithTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+theoryColumns+` FROM theories WHERE id = $1`, id)
		var err error
		theory, err = scanTheory(row)
		if err != nil {
			if isNoRows(err) {
				return domain.ErrTheoryNotFound
			}
			return fmt.Errorf("failed to get theory by ID: %w", err)
		}

		theory.CommentIDs, err = commentIDs(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return theory, nil
}

// Update replaces the mutable fields of a theory.
func (r *theoryRepository) Update(ctx context.Context, theory *domain.Theory) error {
	evidence := theory.EvidenceURLs
	if evidence == nil {
		evidence = []string{}
	}

	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE theories
			SET title = $2, content = $3, status = $4, evidence_urls = $5, anonymous = $6, updated_at = $7
			WHERE id = $1
		`,
			theory.ID,
			theory.Title,
			theory.Content,
			string(theory.Status),
			evidence,
			theory.Anonymous,
			theory.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to update theory: %w", err)
		}
		if result.RowsAffected() == 0 {
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
// The row lock blocks comment inserts that would otherwise slip in between
// the count and the delete.
func (r *theoryRepository) Delete(ctx context.Context, id int64) (int, error) {
	var removed int
	err := r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM theories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if isNoRows(err) {
				return domain.ErrTheoryNotFound
			}
			return fmt.Errorf("failed to lock theory: %w", err)
		}

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE theory_id = $1`, id).Scan(&removed); err != nil {
			return fmt.Errorf("failed to count comments: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM theories WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete theory: %w", err)
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
	return r.list(ctx, `SELECT `+theoryColumns+` FROM theories WHERE author_id = $1 ORDER BY id`, authorID)
}

// Count returns the number of theories.
func (r *theoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM theories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count theories: %w", err)
	}
	return count, nil
}

func (r *theoryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Theory, error) {
	theories := []*domain.Theory{}
	err := r.db.WithTx(ctx, snapshotTx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list theories: %w", err)
		}

		byID := make(map[int64]*domain.Theory)
		for rows.Next() {
			theory, err := scanTheory(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan theory: %w", err)
			}
			theories = append(theories, theory)
			byID[theory.ID] = theory
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating theories: %w", err)
		}

		if len(theories) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(theories))
		for _, t := range theories {
			ids = append(ids, t.ID)
		}

		links, err := tx.Query(ctx, `SELECT id, theory_id FROM comments WHERE theory_id = ANY($1) ORDER BY id`, ids)
		if err != nil {
			return fmt.Errorf("failed to list comment links: %w", err)
		}
		defer links.Close()

		for links.Next() {
			var commentID, theoryID int64
			if err := links.Scan(&commentID, &theoryID); err != nil {
				return fmt.Errorf("failed to scan comment link: %w", err)
			}
			byID[theoryID].CommentIDs = append(byID[theoryID].CommentIDs, commentID)
		}
		return links.Err()
	})
	if err != nil {
		return nil, err
	}
	return theories, nil
}

func commentIDs(ctx context.Context, q Querier, theoryID int64) ([]int64, error) {
	rows, err := q.Query(ctx, `SELECT id FROM comments WHERE theory_id = $1 ORDER BY id`, theoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comment IDs: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect comment IDs: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func scanTheory(row pgx.Row) (*domain.Theory, error) {
	theory := &domain.Theory{CommentIDs: []int64{}}
	var status string

	err := row.Scan(
		&theory.ID,
		&theory.Title,
		&theory.Content,
		&status,
		&theory.AuthorID,
		&theory.EvidenceURLs,
		&theory.PostedAt,
		&theory.UpdatedAt,
		&theory.Anonymous,
	)
	if err != nil {
		return nil, err
	}

	theory.Status = domain.Status(status)
	theory.PostedAt = theory.PostedAt.UTC()
	theory.UpdatedAt = theory.UpdatedAt.UTC()
	if theory.EvidenceURLs == nil {
		theory.EvidenceURLs = []string{}
	}
	return theory, nil
}

var _ repository.TheoryRepository = (*theoryRepository)(nil)
