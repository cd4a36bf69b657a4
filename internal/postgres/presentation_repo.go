package postgres

import (
	"context"

	"github.com/deckforge/collab-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PresentationRepository struct {
	db *pgxpool.Pool
}

func NewPresentationRepository(db *pgxpool.Pool) *PresentationRepository {
	return &PresentationRepository{db: db}
}

func (r *PresentationRepository) Create(ctx context.Context, p *domain.Presentation) error {
	query := `
		INSERT INTO presentations (title)
		VALUES ($1)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, p.Title).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return err
	}
	return nil
}

func (r *PresentationRepository) Get(ctx context.Context, id string) (*domain.Presentation, error) {
	var p domain.Presentation
	query := `SELECT id, title, created_at FROM presentations WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Title, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPresentationNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PresentationRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Presentation, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, title, created_at
		FROM presentations
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var items []domain.Presentation
	for rows.Next() {
		var p domain.Presentation
		if err := rows.Scan(&p.ID, &p.Title, &p.CreatedAt); err != nil {
			return nil, "", err
		}
		items = append(items, p)
	}

	var nextCursor string
	if len(items) == limit {
		last := items[len(items)-1]
		cur := Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		nextCursor, _ = EncodeCursor(cur)
	}

	return items, nextCursor, nil
}

func (r *PresentationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM presentations WHERE id=$1`, id)
	return err
}
