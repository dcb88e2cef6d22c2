// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// 呼び出し元に返すメッセージと、HTTPステータスの決定に使うコードを持つ。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（レスポンスの error フィールド）
	Category string // カテゴリ: auth, validation, diary, upstream, system
	Err      error  // 原因となったエラー（ログ用。レスポンスには含めない）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。errors.Is / errors.As で辿れるようにする。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeDiaryNotFound    = "DIARY_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeCSRFFailed       = "CSRF_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// 固定のエラーメッセージ。フロントエンドがそのまま表示する。
const (
	MsgDateMissing   = "Date parameter is missing"
	MsgInvalidDate   = "Invalid date format"
	MsgDiaryNotFound = "Diary not found"
	MsgUserNotFound  = "User not found"
)

// NewAuthError は認証エラー（401）を生成する。
// プロバイダートークン、セッショントークンのどちらの失敗にも使う。
func NewAuthError(message string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  message,
		Category: "auth",
		Err:      cause,
	}
}

// NewValidationError は入力値エラー（400）を生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
	}
}

// NewValidationErrorWithCause は原因エラー付きの入力値エラー（400）を生成する。
// 原因はログにのみ出力し、レスポンスには含めない。
func NewValidationErrorWithCause(message string, cause error) *APIError {
	apiErr := NewValidationError(message)
	apiErr.Err = cause
	return apiErr
}

// NewDiaryNotFoundError は日記未検出エラーを生成する。
// 存在しない場合と他人の日記の場合を区別しない。
func NewDiaryNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeDiaryNotFound,
		Message:  MsgDiaryNotFound,
		Category: "diary",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  MsgUserNotFound,
		Category: "auth",
	}
}

// NewUpstreamError はIdPとの通信失敗（502）を生成する。
// リトライは行わず、呼び出し元にログインのやり直しを求める。
func NewUpstreamError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  "Identity provider is unavailable",
		Category: "upstream",
		Err:      cause,
	}
}

// NewCSRFError はCSRFトークン検証失敗（403）を生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFFailed,
		Message:  "CSRF token validation failed",
		Category: "auth",
	}
}

// HasCode はerrのチェーン中に指定コードのAPIErrorが含まれるかを返す。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
