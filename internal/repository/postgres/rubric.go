package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

type RubricRepo struct {
	db *DB
}

func NewRubricRepo(db *DB) *RubricRepo {
	return &RubricRepo{db: db}
}

func (r *RubricRepo) Get(ctx context.Context, exerciseID string) (*domain.Rubric, error) {
	query := `SELECT body FROM rubrics WHERE id = $1`

	var body []byte
	err := r.db.Pool.QueryRow(ctx, query, exerciseID).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRubricNotFound
		}
		return nil, fmt.Errorf("get rubric: %w", err)
	}

	return decodeRubric(body)
}

func (r *RubricRepo) Create(ctx context.Context, rubric *domain.Rubric) error {
	body, err := encodeRubric(rubric)
	if err != nil {
		return err
	}

	query := `INSERT INTO rubrics (id, kind, body) VALUES ($1, $2, $3)`

	_, err = r.db.Pool.Exec(ctx, query, rubric.ID, rubric.Kind.String(), body)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateRubric
		}
		return fmt.Errorf("create rubric: %w", err)
	}
	return nil
}

func (r *RubricRepo) Upsert(ctx context.Context, rubric *domain.Rubric) error {
	body, err := encodeRubric(rubric)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO rubrics (id, kind, body)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE
        SET kind = EXCLUDED.kind, body = EXCLUDED.body, updated_at = NOW()
    `

	if _, err := r.db.Pool.Exec(ctx, query, rubric.ID, rubric.Kind.String(), body); err != nil {
		return fmt.Errorf("upsert rubric: %w", err)
	}
	return nil
}

func (r *RubricRepo) List(ctx context.Context) ([]domain.Rubric, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT body FROM rubrics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rubrics: %w", err)
	}
	defer rows.Close()

	var rubrics []domain.Rubric
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan rubric: %w", err)
		}
		rb, err := decodeRubric(body)
		if err != nil {
			return nil, err
		}
		rubrics = append(rubrics, *rb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return rubrics, nil
}

func encodeRubric(rubric *domain.Rubric) ([]byte, error) {
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(rubric)
	if err != nil {
		return nil, fmt.Errorf("encode rubric: %w", err)
	}
	return body, nil
}

// decodeRubric: строку, прошедшую в базу мимо Validate, наружу не отдаём
func decodeRubric(body []byte) (*domain.Rubric, error) {
	var rb domain.Rubric
	if err := json.Unmarshal(body, &rb); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRubric, err)
	}
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return &rb, nil
}
