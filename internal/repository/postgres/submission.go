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

type SubmissionRepo struct {
	db *DB
}

func NewSubmissionRepo(db *DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

const submissionColumns = `id, learner_id, exercise_id, markup, style, passed, score,
        error_type, message, findings, used_hints, submitted_at`

func (r *SubmissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	findings, err := json.Marshal(sub.Result.Findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}

	query := `
        INSERT INTO submissions (id, learner_id, exercise_id, markup, style, passed, score,
            error_type, message, findings, used_hints)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING submitted_at
    `

	err = r.db.Pool.QueryRow(ctx, query,
		sub.ID,
		sub.LearnerID,
		sub.ExerciseID,
		sub.Markup,
		sub.Style,
		sub.Result.Passed,
		sub.Result.Score,
		sub.Result.ErrorType.String(),
		sub.Result.Message,
		findings,
		sub.UsedHints,
	).Scan(&sub.SubmittedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create submission %s: duplicate id", sub.ID)
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := scanSubmission(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) ListByLearner(ctx context.Context, learnerID, exerciseID string, limit int) ([]domain.Submission, error) {
	// LIMIT NULL = без ограничения
	query := `
        SELECT ` + submissionColumns + `
        FROM submissions
        WHERE learner_id = $1 AND ($2 = '' OR exercise_id = $2)
        ORDER BY submitted_at DESC, id DESC
        LIMIT NULLIF($3, 0)
    `

	rows, err := r.db.Pool.Query(ctx, query, learnerID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return subs, nil
}

func (r *SubmissionRepo) Summary(ctx context.Context, learnerID string) ([]domain.ExerciseSummary, error) {
	query := `
        SELECT exercise_id, COUNT(*), MAX(score), BOOL_OR(passed)
        FROM submissions
        WHERE learner_id = $1
        GROUP BY exercise_id
        ORDER BY exercise_id
    `

	rows, err := r.db.Pool.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("submission summary: %w", err)
	}
	defer rows.Close()

	var out []domain.ExerciseSummary
	for rows.Next() {
		var s domain.ExerciseSummary
		if err := rows.Scan(&s.ExerciseID, &s.Attempts, &s.BestScore, &s.Passed); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		s         domain.Submission
		errorType string
		findings  []byte
	)
	err := row.Scan(
		&s.ID,
		&s.LearnerID,
		&s.ExerciseID,
		&s.Markup,
		&s.Style,
		&s.Result.Passed,
		&s.Result.Score,
		&errorType,
		&s.Result.Message,
		&findings,
		&s.UsedHints,
		&s.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Result.ErrorType = domain.ErrorType(errorType)
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &s.Result.Findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
	}
	return &s, nil
}
