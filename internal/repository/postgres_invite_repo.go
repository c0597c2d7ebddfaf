package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/routinely/internal/model"
)

// PostgresInviteRepo はPostgreSQLを使用した招待リポジトリ。
type PostgresInviteRepo struct {
	db *sql.DB
}

// NewPostgresInviteRepo はPostgresInviteRepoを生成する。
func NewPostgresInviteRepo(db *sql.DB) *PostgresInviteRepo {
	return &PostgresInviteRepo{db: db}
}

// FindByID は指定IDの招待を取得する。見つからない場合はnilを返す。
func (r *PostgresInviteRepo) FindByID(ctx context.Context, id string) (*model.Invite, error) {
	invite := &model.Invite{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sender_id, status, created_at FROM invites WHERE id = $1`,
		id,
	).Scan(&invite.ID, &invite.SenderID, &status, &invite.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	invite.Status, err = model.ParseInviteStatus(status)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invite status: %w", err)
	}

	return invite, nil
}

// Create は招待を作成する。
func (r *PostgresInviteRepo) Create(ctx context.Context, invite *model.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, sender_id, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		invite.ID, invite.SenderID, string(invite.Status), invite.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

// UpdateStatus は招待の状態を更新する。
func (r *PostgresInviteRepo) UpdateStatus(ctx context.Context, id string, status model.InviteStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update invite status: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InviteRepository = (*PostgresInviteRepo)(nil)
