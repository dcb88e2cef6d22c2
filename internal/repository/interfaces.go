// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/kdiary/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Upsert はIDが存在しなければ作成し、存在すれば表示用フィールドを上書きする。
	// 同一ユーザーの同時ログインは後勝ちとなる。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するdiariesはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// DiaryRepository は日記データの永続化インターフェース。
type DiaryRepository interface {
	// Create は日記を作成し、採番されたIDとタイムスタンプを含めて返す。
	Create(ctx context.Context, diary *model.Diary) (*model.Diary, error)

	// FindByID は指定IDの日記を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Diary, error)

	// ListByUserAndDate はユーザーの指定日付の日記を作成順で返す。
	ListByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]*model.Diary, error)

	// ListByUserID はユーザーの全日記を作成順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Diary, error)

	// Update は日記のタイトル・本文を部分更新する。
	// diary_idとuser_idの両方に一致する行のみ更新し、該当がなければnilを返す。
	Update(ctx context.Context, diaryID, userID int64, update model.DiaryUpdate) (*model.Diary, error)
}
