// Package diary は日記のドメインロジックを提供する。
//
// 日記は必ず1人のユーザーと1つの日付に属する。
// 更新系の操作は全てRequireOwnerによる所有者確認を通過してから行う。
package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/kdiary/internal/metrics"
	"github.com/hitoshi/kdiary/internal/model"
	"github.com/hitoshi/kdiary/internal/repository"
	"github.com/hitoshi/kdiary/internal/security"
)

// 日記テキストの検証エラーメッセージ
const (
	MsgContentRequired = "Content is required"
	MsgInvalidText     = "Text contains unsupported characters"
)

// Service は日記のサービス層。
type Service struct {
	repo      repository.DiaryRepository
	validator security.TextValidator
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(repo repository.DiaryRepository, validator security.TextValidator, collector metrics.MetricsCollector) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		metrics:   collector,
	}
}

// ParseDate はYYYY-MM-DD形式の日付を解釈する。
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, model.NewValidationError(model.MsgDateMissing)
	}
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError(model.MsgInvalidDate)
	}
	return d, nil
}

// Create は日記を作成する。
// titleがnilまたは空白のみの場合は"Untitled"になる。
func (s *Service) Create(ctx context.Context, userID int64, date string, title *string, content string) (*model.Diary, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	cleanedTitle, err := s.cleanTitle(title)
	if err != nil {
		return nil, err
	}
	body, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &model.Diary{
		UserID:  userID,
		Date:    d,
		Title:   cleanedTitle,
		Content: body,
	})
	if err != nil {
		if model.HasCode(err, model.ErrCodeUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("日記の作成に失敗しました: %w", err)
	}

	s.recordWrite(metrics.DiaryOpCreate)
	slog.Info("diary created",
		slog.String("user_id", strconv.FormatInt(userID, 10)),
		slog.String("diary_id", strconv.FormatInt(created.ID, 10)),
		slog.String("date", date),
	)

	return created, nil
}

// ListByUserAndDate はユーザーの指定日付の日記を作成順に返す。
func (s *Service) ListByUserAndDate(ctx context.Context, userID int64, date string) ([]*model.Diary, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	diaries, err := s.repo.ListByUserAndDate(ctx, userID, d)
	if err != nil {
		return nil, fmt.Errorf("日記の取得に失敗しました: %w", err)
	}
	return diaries, nil
}

// ListByUser はユーザーの全日記を作成順に返す。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*model.Diary, error) {
	diaries, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("日記の取得に失敗しました: %w", err)
	}
	return diaries, nil
}

// RequireOwner は日記が存在し、かつuserIDの所有であることを確認する。
// 存在しない場合と他人の日記の場合は区別せずDIARY_NOT_FOUNDを返す。
func (s *Service) RequireOwner(ctx context.Context, diaryID, userID int64) (*model.Diary, error) {
	d, err := s.repo.FindByID(ctx, diaryID)
	if err != nil {
		return nil, fmt.Errorf("日記の取得に失敗しました: %w", err)
	}
	if d == nil || d.UserID != userID {
		return nil, model.NewDiaryNotFoundError()
	}
	return d, nil
}

// Update はタイトル・本文のうち指定されたものだけを更新する。
// 日付と所有者は変更できない。
func (s *Service) Update(ctx context.Context, diaryID, userID int64, title, content *string) (*model.Diary, error) {
	current, err := s.RequireOwner(ctx, diaryID, userID)
	if err != nil {
		return nil, err
	}

	var update model.DiaryUpdate
	if title != nil {
		cleaned, err := s.cleanTitle(title)
		if err != nil {
			return nil, err
		}
		update.Title = &cleaned
	}
	if content != nil {
		body, err := s.cleanContent(*content)
		if err != nil {
			return nil, err
		}
		update.Content = &body
	}
	if update.Title == nil && update.Content == nil {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, diaryID, userID, update)
	if err != nil {
		return nil, fmt.Errorf("日記の更新に失敗しました: %w", err)
	}
	// 確認後に削除された場合
	if updated == nil {
		return nil, model.NewDiaryNotFoundError()
	}

	s.recordWrite(metrics.DiaryOpUpdate)
	slog.Info("diary updated",
		slog.String("user_id", strconv.FormatInt(userID, 10)),
		slog.String("diary_id", strconv.FormatInt(diaryID, 10)),
	)

	return updated, nil
}

// cleanTitle はタイトルを検証する。nilまたは空白のみの場合は"Untitled"を返す。
// それ以外は入力されたまま保存する。
func (s *Service) cleanTitle(title *string) (string, error) {
	if title == nil || strings.TrimSpace(*title) == "" {
		return model.DefaultDiaryTitle, nil
	}
	if err := s.validator.Validate(*title); err != nil {
		return "", model.NewValidationErrorWithCause(MsgInvalidText, err)
	}
	return *title, nil
}

// cleanContent は本文を検証する。空白のみの本文は受け付けない。
func (s *Service) cleanContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", model.NewValidationError(MsgContentRequired)
	}
	if err := s.validator.Validate(content); err != nil {
		return "", model.NewValidationErrorWithCause(MsgInvalidText, err)
	}
	return content, nil
}

func (s *Service) recordWrite(op string) {
	if s.metrics != nil {
		s.metrics.RecordDiaryWrite(op)
	}
}
