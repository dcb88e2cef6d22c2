// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/repository"
)

// Service はユーザー管理のサービス層。
// ユーザーはIdPのIDをそのまま主キーとして持つ。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Upsert はIdPのプロフィールでユーザーを作成または更新する。
// 同一IDへの同時実行はデータベース上で後勝ちとなる。
func (s *Service) Upsert(ctx context.Context, profile *model.ProviderProfile) (*model.User, error) {
	if profile == nil || profile.ID <= 0 {
		return nil, model.NewValidationError("Invalid user id")
	}

	stored, err := s.userRepo.Upsert(ctx, normalize(profile))
	if err != nil {
		return nil, fmt.Errorf("ユーザーの保存に失敗しました: %w", err)
	}

	slog.Info("user upserted",
		slog.String("user_id", strconv.FormatInt(stored.ID, 10)),
		slog.Bool("created", stored.CreatedAt.Equal(stored.UpdatedAt)),
	)

	return stored, nil
}

// Get は指定IDのユーザーを取得する。存在しなければUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Remove はユーザーを削除する。日記はCASCADEで削除される。
func (s *Service) Remove(ctx context.Context, userID int64) error {
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		if model.HasCode(err, model.ErrCodeUserNotFound) {
			return err
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user removed", slog.String("user_id", strconv.FormatInt(userID, 10)))
	return nil
}

// normalize はプロフィールを保存用のUserに変換する。
// 欠落したフィールドは空文字、前後の空白は除去する。
func normalize(profile *model.ProviderProfile) *model.User {
	return &model.User{
		ID:        profile.ID,
		Nickname:  strings.TrimSpace(profile.Nickname),
		Profile:   strings.TrimSpace(profile.Profile),
		Thumbnail: strings.TrimSpace(profile.Thumbnail),
		Email:     strings.TrimSpace(profile.Email),
	}
}
