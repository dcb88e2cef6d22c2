package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/kdiary/internal/model"
)

const (
	findUserByID = `SELECT id, nickname, profile, thumbnail, email, created_at, updated_at
		FROM users
		WHERE id = $1`

	upsertUser = `INSERT INTO users (id, nickname, profile, thumbnail, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			nickname = EXCLUDED.nickname,
			profile = EXCLUDED.profile,
			thumbnail = EXCLUDED.thumbnail,
			email = EXCLUDED.email,
			updated_at = now()
		RETURNING id, nickname, profile, thumbnail, email, created_at, updated_at`

	deleteUser = `DELETE FROM users WHERE id = $1`
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
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, findUserByID, id).Scan(
		&user.ID, &user.Nickname, &user.Profile, &user.Thumbnail, &user.Email,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Upsert はON CONFLICTで1文のINSERT/UPDATEを行う。
// 行ロックはPostgreSQLに任せ、アプリケーション側では排他しない。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	stored := &model.User{}
	err := r.db.QueryRowContext(ctx, upsertUser,
		user.ID, user.Nickname, user.Profile, user.Thumbnail, user.Email,
	).Scan(
		&stored.ID, &stored.Nickname, &stored.Profile, &stored.Thumbnail, &stored.Email,
		&stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return stored, nil
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
