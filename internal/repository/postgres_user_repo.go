package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/routinely/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByAccount は(provider, subject)に紐付くユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByAccount(ctx context.Context, provider, subject string) (*model.User, error) {
	return findUserByAccount(ctx, r.db, provider, subject)
}

// UpsertByAccount は(provider, subject)に紐付くユーザーを取得し、
// 存在しなければuserとaccountを同一トランザクションで作成する。
//
// 同一IDの同時初回ログインはaccountsの(provider, subject)一意制約で
// 直列化される: accountの挿入がON CONFLICT DO NOTHINGで0行になった場合、
// 別のリクエストが先に作成したことを意味するため、自分が挿入した
// userをロールバックして勝者のユーザーを取得し直す。
func (r *PostgresUserRepo) UpsertByAccount(ctx context.Context, account *model.Account, user *model.User) (*model.User, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := findUserByAccount(ctx, tx, account.Provider, account.Subject)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return existing, false, nil
	}

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert user: %w", err)
	}

	// アカウント紐付けを作成
	result, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (provider, subject, user_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider, subject) DO NOTHING`,
		account.Provider, account.Subject, user.ID, account.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert account: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if inserted == 0 {
		// 同時初回ログインに負けた。自分のuser挿入を破棄して勝者を返す。
		if err := tx.Rollback(); err != nil {
			return nil, false, fmt.Errorf("failed to rollback transaction: %w", err)
		}
		winner, err := findUserByAccount(ctx, r.db, account.Provider, account.Subject)
		if err != nil {
			return nil, false, err
		}
		if winner == nil {
			return nil, false, fmt.Errorf("account (%s, %s) conflicted but owner not found", account.Provider, account.Subject)
		}
		return winner, false, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, true, nil
}

// UpdateAvatar はユーザーのアバター画像を更新する。
func (r *PostgresUserRepo) UpdateAvatar(ctx context.Context, id string, data []byte, mime string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_data = $2, avatar_mime = $3, updated_at = $4 WHERE id = $1`,
		id, data, mime, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するaccounts、routines、invitesはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// queryer は*sql.DBと*sql.Txの共通部分。
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findUserByAccount はaccountsをJOINして(provider, subject)の
// 所有ユーザーを検索する。見つからない場合はnilを返す。
func findUserByAccount(ctx context.Context, q queryer, provider, subject string) (*model.User, error) {
	user := &model.User{}
	err := q.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM users u
		 JOIN accounts a ON a.user_id = u.id
		 WHERE a.provider = $1 AND a.subject = $2`,
		provider, subject,
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by account: %w", err)
	}

	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
