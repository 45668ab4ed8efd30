package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// RoutingKeyUserRegistered — ключ события регистрации пользователя.
const RoutingKeyUserRegistered = "user.registered"

// GetAccountQueues возвращает очереди событий учётных записей.
func GetAccountQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "accounts.registered", RoutingKey: RoutingKeyUserRegistered},
	}
}
