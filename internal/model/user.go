// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID         string
	Email      string
	Name       string
	AvatarData []byte
	AvatarMime string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Account は外部IdPアカウントとローカルユーザーの紐付けを表す。
// (provider, subject) の組はシステム全体で一意。
type Account struct {
	Provider  string
	Subject   string
	UserID    string
	CreatedAt time.Time
}

// SessionUser はセッションペイロードに格納するユーザー識別情報。
// アバター等の重いフィールドは含めない。
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
