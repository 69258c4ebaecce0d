package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newswatch/internal/middleware"
	"github.com/hitoshi/newswatch/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrScrapeInProgress) {
		middleware.WriteAPIError(w, model.NewScrapeInProgressError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
