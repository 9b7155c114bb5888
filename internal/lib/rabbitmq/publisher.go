package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует событие в JSON и публикует его в exchange
// с заданным ключом маршрутизации. Сообщения публикуются персистентными,
// чтобы переживать перезапуск брокера.
func PublishMessage(ch *amqp.Channel, exchange, routingKey string, event any) error {
	const op = "rabbitmq.PublishMessage"

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
