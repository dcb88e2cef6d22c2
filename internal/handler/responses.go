package handler

import (
	"time"

	"github.com/hitoshi/kdiary/internal/model"
)

// userResponse は保存済みユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	Profile   string `json:"profile"`
	Thumbnail string `json:"thumbnail"`
	Email     string `json:"email,omitempty"`
}

// diaryResponse は日記のAPIレスポンス。
// Startはカレンダー表示用で、/diary/eventsでのみ設定する。
type diaryResponse struct {
	DiaryID   int64     `json:"diary_id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Start     string    `json:"start,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// providerTokenResponse はIdPトークンの中継レスポンス。
type providerTokenResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in,omitempty"`
	Scope                 string `json:"scope,omitempty"`
}

// providerProfileResponse はIdPプロフィールの中継レスポンス。
type providerProfileResponse struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	Profile   string `json:"profile"`
	Thumbnail string `json:"thumbnail"`
	Email     string `json:"email,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Nickname:  u.Nickname,
		Profile:   u.Profile,
		Thumbnail: u.Thumbnail,
		Email:     u.Email,
	}
}

func toDiaryResponse(d *model.Diary) diaryResponse {
	return diaryResponse{
		DiaryID:   d.ID,
		UserID:    d.UserID,
		Date:      d.Date.Format(model.DateLayout),
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDiaryResponses(diaries []*model.Diary) []diaryResponse {
	result := make([]diaryResponse, 0, len(diaries))
	for _, d := range diaries {
		result = append(result, toDiaryResponse(d))
	}
	return result
}

// toEventResponses はカレンダー用にstartを付けた日記一覧を返す。
func toEventResponses(diaries []*model.Diary) []diaryResponse {
	result := toDiaryResponses(diaries)
	for i := range result {
		result[i].Start = result[i].Date
	}
	return result
}

func toProviderTokenResponse(t *model.ProviderTokenSet) providerTokenResponse {
	return providerTokenResponse{
		AccessToken:           t.AccessToken,
		TokenType:             t.TokenType,
		RefreshToken:          t.RefreshToken,
		ExpiresIn:             t.ExpiresIn,
		RefreshTokenExpiresIn: t.RefreshTokenExpiresIn,
		Scope:                 t.Scope,
	}
}

func toProviderProfileResponse(p *model.ProviderProfile) providerProfileResponse {
	return providerProfileResponse{
		ID:        p.ID,
		Nickname:  p.Nickname,
		Profile:   p.Profile,
		Thumbnail: p.Thumbnail,
		Email:     p.Email,
	}
}
