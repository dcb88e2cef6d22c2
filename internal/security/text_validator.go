// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 日記のタイトル・本文は入力されたまま保存し、表示側でエスケープする。
// ここではPostgreSQLのTEXT型に保存できない文字列だけを拒否する。
package security

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNULCharacter はNUL文字を含む文字列を表す。PostgreSQLのTEXT型は保存できない。
	ErrNULCharacter = errors.New("text contains NUL character")
	// ErrInvalidUTF8 は不正なUTF-8バイト列を表す。
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")
)

// TextValidator は日記テキストの検証インターフェース。
type TextValidator interface {
	// Validate は保存できない文字列の場合にエラーを返す。
	// 文字列は変更しない。
	Validate(s string) error
}

// PlainTextValidator はTextValidatorの実装。
type PlainTextValidator struct{}

// NewTextValidator はPlainTextValidatorを生成する。
func NewTextValidator() *PlainTextValidator {
	return &PlainTextValidator{}
}

// Validate はNUL文字と不正なUTF-8を拒否する。
// マークアップや文字参照はそのまま受け付ける。
func (v *PlainTextValidator) Validate(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	if strings.ContainsRune(s, 0) {
		return ErrNULCharacter
	}
	return nil
}

// compile-time interface check
var _ TextValidator = (*PlainTextValidator)(nil)
