// Package model はドメインモデルを定義する。
package model

import "time"

// User はKakaoでログインしたユーザーを表す。
// IDはKakaoの会員番号をそのまま主キーとして使う。
type User struct {
	ID        int64
	Nickname  string
	Profile   string // プロフィール画像URL
	Thumbnail string // サムネイル画像URL
	Email     string // 同意がない場合は空文字
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderProfile はIdPのユーザー情報エンドポイントから取得したプロフィール。
// User Directoryへのupsert入力になる。
type ProviderProfile struct {
	ID        int64
	Nickname  string
	Profile   string
	Thumbnail string
	Email     string
}

// ProviderTokenSet はIdPのトークンエンドポイントが返すトークン一式。
type ProviderTokenSet struct {
	AccessToken           string
	TokenType             string
	RefreshToken          string // リフレッシュ時は更新されない場合があり空になり得る
	ExpiresIn             int
	RefreshTokenExpiresIn int
	Scope                 string
}
