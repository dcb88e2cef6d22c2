package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kdiary/internal/middleware"
	"github.com/hitoshi/kdiary/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限（1MiB）。
const maxRequestBodyBytes = 1 << 20

// リクエストボディのエラーメッセージ
const (
	msgInvalidRequestBody  = "Invalid request body"
	msgRequestBodyTooLarge = "Request body too large"
)

// resultResponse は更新系APIの成功レスポンス。
type resultResponse struct {
	Result bool `json:"result"`
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeResultOK は{"result": true}を返す。
func writeResultOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, resultResponse{Result: true})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, middleware.StatusForCode(apiErr.Code), apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIErrorを含まないエラーは詳細をログに残し、500として返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Err != nil {
			slog.Warn("request failed",
				slog.String("code", apiErr.Code),
				slog.String("error", err.Error()),
			)
		}
		writeAPIErrorResponse(w, apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// userIDOrUnauthorized はコンテキストのユーザーIDを返す。
// 取得できない場合は401を書き込みfalseを返す。
func userIDOrUnauthorized(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, model.NewAuthError("Missing or invalid token", err))
		return 0, false
	}
	return userID, true
}

// decodeJSONBody はリクエストボディをJSONとして読み込む。
// ボディはmaxRequestBodyBytesまでに制限する。
// 失敗した場合は400を書き込みfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIErrorResponse(w, model.NewValidationError(msgRequestBodyTooLarge))
			return false
		}
		writeAPIErrorResponse(w, model.NewValidationError(msgInvalidRequestBody))
		return false
	}
	return true
}
