// Package sl содержит мелкие помощники для логгера slog.
package sl

import "log/slog"

// Err оборачивает ошибку в slog.Attr с ключом "error", чтобы ошибки
// во всех сервисах логировались единообразно:
//
//	log.Error("failed to update settings", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}
