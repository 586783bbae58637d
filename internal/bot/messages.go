package bot

import (
	"errors"

	"github.com/xaenox/tonebuddy/internal/analyzer"
)

const (
	msgRequestFailed  = "Ошибка запроса"
	msgStorageFailed  = "Не удалось прочитать счётчик анализов"
	msgEmptyResponse  = "Модель ничего не ответила. Попробуй ещё раз."
	msgBadModelAnswer = "Модель ответила в неожиданном формате. Попробуй ещё раз."
	msgDeliveryFailed = "Не получилось отправить разбор. Попробуй ещё раз."
)

// failureMessage is what the chat sees when an analysis fails. Provider
// details stay in the logs.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrEmptyResponse):
		return msgEmptyResponse
	case errors.Is(err, analyzer.ErrInvalidJSON), errors.Is(err, analyzer.ErrSchemaMismatch):
		return msgBadModelAnswer
	default:
		return msgRequestFailed
	}
}
