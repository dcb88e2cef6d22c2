package model

import "time"

// DefaultDiaryTitle はタイトル未指定時に使うタイトル。
const DefaultDiaryTitle = "Untitled"

// DateLayout は日記の日付フォーマット（YYYY-MM-DD）。
const DateLayout = "2006-01-02"

// Diary はユーザーが日付に紐付けて書く日記エントリを表す。
type Diary struct {
	ID        int64
	UserID    int64
	Date      time.Time // 時刻成分を持たない（UTCの0時）
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiaryUpdate は日記の部分更新内容を表す。nilのフィールドは変更しない。
type DiaryUpdate struct {
	Title   *string
	Content *string
}
