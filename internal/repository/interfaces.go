// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/routinely/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByAccount は(provider, subject)に紐付くユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByAccount(ctx context.Context, provider, subject string) (*model.User, error)

	// UpsertByAccount は(provider, subject)に紐付くユーザーを取得し、
	// 存在しなければuserとaccountを同一トランザクションで作成する。
	// 既存ユーザーはプロフィールを更新せずそのまま返す。
	// 同一IDの同時初回ログインでもユーザーは1行しか作られない。
	// createdは新規作成が行われた場合にtrueになる。
	UpsertByAccount(ctx context.Context, account *model.Account, user *model.User) (result *model.User, created bool, err error)

	// UpdateAvatar はユーザーのアバター画像を更新する。
	UpdateAvatar(ctx context.Context, id string, data []byte, mime string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するaccounts、routines、invitesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// RoutineRepository はルーティンデータの永続化インターフェース。
type RoutineRepository interface {
	// FindByID は指定IDのルーティンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Routine, error)

	// ListByUserID はユーザーのルーティン一覧を作成日時の昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Routine, error)

	// Create はルーティンを作成する。
	Create(ctx context.Context, routine *model.Routine) error

	// DeleteByID は指定IDのルーティンを削除する。
	// 関連するroutine_entriesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// EntryRepository はルーティン実施記録の永続化インターフェース。
type EntryRepository interface {
	// ListByRoutineID はルーティンの実施記録一覧を日付の昇順で返す。
	ListByRoutineID(ctx context.Context, routineID string) ([]*model.RoutineEntry, error)

	// Toggle は(routineID, date)の実施記録を反転する。
	// 記録があれば削除し、なければ作成する。反転後に記録が
	// 存在するかどうかを返す。
	Toggle(ctx context.Context, routineID string, date time.Time) (bool, error)
}

// InviteRepository は招待データの永続化インターフェース。
type InviteRepository interface {
	// FindByID は指定IDの招待を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Invite, error)

	// Create は招待を作成する。
	Create(ctx context.Context, invite *model.Invite) error

	// UpdateStatus は招待の状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.InviteStatus) error
}
