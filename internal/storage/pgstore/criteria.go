package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertCriterionSQL = `INSERT INTO criteria (id, user_id, criterion) VALUES ($1, $2, $3)`

	latestCriterionSQL = `
SELECT criterion FROM criteria
WHERE user_id = $1 AND btrim(criterion) <> ''
ORDER BY created_at DESC, seq DESC
LIMIT 1`
)

func (db *DB) AppendCriterion(ctx context.Context, userID int64, criterion string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate criterion id: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, insertCriterionSQL, id, userID, sanitizeUTF8(criterion)); err != nil {
		return fmt.Errorf("insert criterion: %w", err)
	}

	return nil
}

func (db *DB) LatestCriterion(ctx context.Context, userID int64) (string, bool, error) {
	var criterion string

	err := db.Pool.QueryRow(ctx, latestCriterionSQL, userID).Scan(&criterion)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("query latest criterion: %w", err)
	}

	return strings.TrimSpace(criterion), true, nil
}
