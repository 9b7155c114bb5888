// Package smtp реализует SMTP транспорт для воркера почтовой рассылки.
package smtp

import "io"

// Client описывает минимальный интерфейс SMTP-клиента,
// достаточный для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
