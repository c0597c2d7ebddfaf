package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/routinely/internal/model"
)

// PostgresRoutineRepo はPostgreSQLを使用したルーティンリポジトリ。
type PostgresRoutineRepo struct {
	db *sql.DB
}

// NewPostgresRoutineRepo はPostgresRoutineRepoを生成する。
func NewPostgresRoutineRepo(db *sql.DB) *PostgresRoutineRepo {
	return &PostgresRoutineRepo{db: db}
}

// FindByID は指定IDのルーティンを取得する。見つからない場合はnilを返す。
func (r *PostgresRoutineRepo) FindByID(ctx context.Context, id string) (*model.Routine, error) {
	routine := &model.Routine{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, color, user_id, created_at, updated_at
		 FROM routines WHERE id = $1`,
		id,
	).Scan(&routine.ID, &routine.Title, &routine.Color, &routine.UserID, &routine.CreatedAt, &routine.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find routine: %w", err)
	}

	return routine, nil
}

// ListByUserID はユーザーのルーティン一覧を作成日時の昇順で返す。
func (r *PostgresRoutineRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Routine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, color, user_id, created_at, updated_at
		 FROM routines WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	defer rows.Close()

	var routines []*model.Routine
	for rows.Next() {
		routine := &model.Routine{}
		if err := rows.Scan(&routine.ID, &routine.Title, &routine.Color, &routine.UserID, &routine.CreatedAt, &routine.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}

	return routines, nil
}

// Create はルーティンを作成する。
func (r *PostgresRoutineRepo) Create(ctx context.Context, routine *model.Routine) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO routines (id, title, color, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		routine.ID, routine.Title, routine.Color, routine.UserID, routine.CreatedAt, routine.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create routine: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのルーティンを削除する。
// 関連するroutine_entriesはCASCADE削除される。
func (r *PostgresRoutineRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM routines WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoutineRepository = (*PostgresRoutineRepo)(nil)
