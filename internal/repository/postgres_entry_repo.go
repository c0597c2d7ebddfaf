package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/routinely/internal/model"
)

// PostgresEntryRepo はPostgreSQLを使用した実施記録リポジトリ。
type PostgresEntryRepo struct {
	db *sql.DB
}

// NewPostgresEntryRepo はPostgresEntryRepoを生成する。
func NewPostgresEntryRepo(db *sql.DB) *PostgresEntryRepo {
	return &PostgresEntryRepo{db: db}
}

// ListByRoutineID はルーティンの実施記録一覧を日付の昇順で返す。
func (r *PostgresEntryRepo) ListByRoutineID(ctx context.Context, routineID string) ([]*model.RoutineEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT routine_id, date FROM routine_entries
		 WHERE routine_id = $1
		 ORDER BY date ASC`,
		routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.RoutineEntry
	for rows.Next() {
		entry := &model.RoutineEntry{}
		if err := rows.Scan(&entry.RoutineID, &entry.Date); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}

// Toggle は(routineID, date)の実施記録を反転する。
// DELETEが1行消せば「未実施に戻した」、0行なら記録が無かったので
// INSERTする。ダブルクリック等の同時トグルはINSERTの主キー制約を
// ON CONFLICT DO NOTHINGで吸収し、結果は冪等になる。
func (r *PostgresEntryRepo) Toggle(ctx context.Context, routineID string, date time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	day := date.Format(model.EntryDateFormat)

	result, err := tx.ExecContext(ctx,
		`DELETE FROM routine_entries WHERE routine_id = $1 AND date = $2`,
		routineID, day,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if deleted > 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO routine_entries (routine_id, date)
		 VALUES ($1, $2)
		 ON CONFLICT (routine_id, date) DO NOTHING`,
		routineID, day,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// compile-time interface check
var _ EntryRepository = (*PostgresEntryRepo)(nil)
