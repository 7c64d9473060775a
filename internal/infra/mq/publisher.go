package mq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const orderEventsQueue = "order.events"

// OrderPlaced is the fulfillment notification published after an order
// transaction commits. Publishing is best-effort: the order is already
// durable in the database when this fires.
type OrderPlaced struct {
	OrderID   int64     `json:"order_id"`
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	Total     string    `json:"total"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Publisher writes order events to a durable queue.
type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher wraps an AMQP connection; a nil connection yields a
// publisher whose methods are no-ops.
func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// OrderPlaced publishes the event to the order events queue.
func (p *Publisher) OrderPlaced(ctx context.Context, ev OrderPlaced) error {
	if p == nil || p.conn == nil {
		return nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(orderEventsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(&ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		orderEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
