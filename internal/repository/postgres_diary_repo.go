package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hitoshi/kdiary/internal/model"
)

// diaryColumns はdiariesテーブルから読み出す列。scanDiaryの引数順と一致させる。
var diaryColumns = []string{"diary_id", "user_id", "date", "title", "content", "created_at", "updated_at"}

// PostgresDiaryRepo はPostgreSQLを使用した日記リポジトリ。
// クエリはsquirrelで組み立て、プレースホルダは$N形式を使う。
type PostgresDiaryRepo struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewPostgresDiaryRepo はPostgresDiaryRepoを生成する。
func NewPostgresDiaryRepo(db *sql.DB) *PostgresDiaryRepo {
	return &PostgresDiaryRepo{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiary(row rowScanner) (*model.Diary, error) {
	d := &model.Diary{}
	if err := row.Scan(&d.ID, &d.UserID, &d.Date, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// Create は日記を作成する。
// user_idに対応するユーザーが存在しない場合はUSER_NOT_FOUNDを返す。
func (r *PostgresDiaryRepo) Create(ctx context.Context, diary *model.Diary) (*model.Diary, error) {
	query, args, err := r.builder.
		Insert("diaries").
		Columns("user_id", "date", "title", "content").
		Values(diary.UserID, diary.Date.Format(model.DateLayout), diary.Title, diary.Content).
		Suffix("RETURNING diary_id, user_id, date, title, content, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert diary query: %w", err)
	}

	created, err := scanDiary(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("failed to insert diary: %w", err)
	}

	return created, nil
}

// FindByID は指定IDの日記を取得する。見つからない場合はnilを返す。
func (r *PostgresDiaryRepo) FindByID(ctx context.Context, id int64) (*model.Diary, error) {
	query, args, err := r.builder.
		Select(diaryColumns...).
		From("diaries").
		Where(sq.Eq{"diary_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find diary query: %w", err)
	}

	d, err := scanDiary(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find diary by ID: %w", err)
	}

	return d, nil
}

// ListByUserAndDate はユーザーの指定日付の日記をdiary_id昇順で返す。
func (r *PostgresDiaryRepo) ListByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]*model.Diary, error) {
	return r.list(ctx, r.builder.
		Select(diaryColumns...).
		From("diaries").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"date": date.Format(model.DateLayout)}).
		OrderBy("diary_id ASC"))
}

// ListByUserID はユーザーの全日記をdiary_id昇順で返す。
func (r *PostgresDiaryRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Diary, error) {
	return r.list(ctx, r.builder.
		Select(diaryColumns...).
		From("diaries").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("diary_id ASC"))
}

func (r *PostgresDiaryRepo) list(ctx context.Context, b sq.SelectBuilder) ([]*model.Diary, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list diaries query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	defer rows.Close()

	diaries := make([]*model.Diary, 0)
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary: %w", err)
		}
		diaries = append(diaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diaries: %w", err)
	}

	return diaries, nil
}

// Update はタイトル・本文のうち指定されたものだけを更新する。
// WHERE句に所有者を含めるため、他人の日記は更新されずnilが返る。
func (r *PostgresDiaryRepo) Update(ctx context.Context, diaryID, userID int64, update model.DiaryUpdate) (*model.Diary, error) {
	b := r.builder.Update("diaries")
	if update.Title != nil {
		b = b.Set("title", *update.Title)
	}
	if update.Content != nil {
		b = b.Set("content", *update.Content)
	}

	query, args, err := b.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"diary_id": diaryID}).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING diary_id, user_id, date, title, content, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update diary query: %w", err)
	}

	d, err := scanDiary(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update diary: %w", err)
	}

	return d, nil
}

// compile-time interface check
var _ DiaryRepository = (*PostgresDiaryRepo)(nil)
