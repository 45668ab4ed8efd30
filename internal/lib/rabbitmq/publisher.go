package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует message в JSON и публикует его как persistent-сообщение.
// Отменённый ctx прерывает публикацию до отправки в канал.
func PublishMessage(ctx context.Context, ch *amqp.Channel, exchange, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	}
	if err = ch.Publish(exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
