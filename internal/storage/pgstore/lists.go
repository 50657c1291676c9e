package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
)

type listTable string

const (
	tableUserChats   listTable = "user_chats"
	tableUserQueries listTable = "user_queries"
)

func (t listTable) insertSQL() string {
	return `INSERT INTO ` + string(t) + ` (id, user_id, value) VALUES ($1, $2, $3)
ON CONFLICT (user_id, value) DO NOTHING`
}

func (t listTable) listSQL() string {
	return `SELECT user_id, value, created_at FROM ` + string(t) + `
WHERE user_id = $1
ORDER BY created_at, seq`
}

func (db *DB) addListValue(ctx context.Context, table listTable, userID int64, value string) (bool, error) {
	value = strings.TrimSpace(sanitizeUTF8(value))
	if value == "" {
		return false, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("generate %s id: %w", table, err)
	}

	tag, err := db.Pool.Exec(ctx, table.insertSQL(), id, userID, value)
	if err != nil {
		return false, fmt.Errorf("insert into %s: %w", table, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (db *DB) listValues(ctx context.Context, table listTable, userID int64) ([]ports.ListEntry, error) {
	rows, err := db.Pool.Query(ctx, table.listSQL(), userID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ports.ListEntry, error) {
		var e ports.ListEntry
		err := row.Scan(&e.UserID, &e.Value, &e.CreatedAt)

		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}

	return entries, nil
}

func (db *DB) AddChat(ctx context.Context, userID int64, chat string) (bool, error) {
	return db.addListValue(ctx, tableUserChats, userID, chat)
}

func (db *DB) ListChats(ctx context.Context, userID int64) ([]ports.ListEntry, error) {
	return db.listValues(ctx, tableUserChats, userID)
}

func (db *DB) AddQuery(ctx context.Context, userID int64, criterion string) (bool, error) {
	return db.addListValue(ctx, tableUserQueries, userID, criterion)
}

func (db *DB) ListQueries(ctx context.Context, userID int64) ([]ports.ListEntry, error) {
	return db.listValues(ctx, tableUserQueries, userID)
}
