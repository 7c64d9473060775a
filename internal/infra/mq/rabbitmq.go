package mq

import (
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init opens the RabbitMQ connection. An empty URL returns nil; order
// placement then skips event publishing.
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		if cfg.URL == "" {
			return
		}
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
		conn = c
	})
	return conn
}

// Conn returns the connection, nil when the broker is disabled.
func Conn() *amqp.Connection {
	return conn
}
