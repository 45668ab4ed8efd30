// Package events публикует события учётных записей во внешние системы.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/team-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/team-portal/internal/models"
)

// UserRegistered — тело события о регистрации пользователя.
type UserRegistered struct {
	Event      string    `json:"event"`
	UserUID    string    `json:"user_uid"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Team       string    `json:"team"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserRegistered собирает событие из записи пользователя.
func NewUserRegistered(user models.User, at time.Time) UserRegistered {
	return UserRegistered{
		Event:      rabbitmq.RoutingKeyUserRegistered,
		UserUID:    user.UUID,
		Username:   user.Username,
		Name:       user.Name,
		Team:       user.Team,
		Role:       user.Role,
		OccurredAt: at,
	}
}

// Noop ничего не публикует. Используется, когда брокер не настроен.
type Noop struct{}

func (Noop) UserRegistered(context.Context, models.User) error { return nil }

// AMQPPublisher публикует события в exchange RabbitMQ.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	now      func() time.Time
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange и очереди событий.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"
	conn, err := rabbitmq.Connect(url, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, exchange, rabbitmq.GetAccountQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

// UserRegistered публикует событие user.registered.
func (p *AMQPPublisher) UserRegistered(ctx context.Context, user models.User) error {
	const op = "events.AMQPPublisher.UserRegistered"

	p.mu.Lock()
	defer p.mu.Unlock()
	err := rabbitmq.PublishMessage(ctx, p.ch, p.exchange, rabbitmq.RoutingKeyUserRegistered,
		NewUserRegistered(user, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}
