// Package apperr содержит сигнальные ошибки доменного уровня.
// Слои выше различают их через errors.Is и выбирают HTTP-статус
// или стратегию повтора; всё остальное считается временной ошибкой
// ввода-вывода и оборачивается по месту возникновения.
package apperr

import "errors"

var (
	// ErrNotFound запись (аккаунт, заявка, уведомление) отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrForbidden операция доступна только администратору.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyReviewed заявка уже рассмотрена, статус терминальный.
	ErrAlreadyReviewed = errors.New("request already reviewed")
	// ErrValidation входные данные не прошли проверку.
	ErrValidation = errors.New("validation error")
	// ErrInconsistentState снимок аккаунта нарушает инвариант так,
	// что корректирующая логика не может его починить.
	ErrInconsistentState = errors.New("inconsistent account state")
)
