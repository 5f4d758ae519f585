package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"docanalyst/internal/model"
)

// ExchangePublisher records exchanges by queueing them for the persist worker.
type ExchangePublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewExchangePublisher(conn *amqp.Connection, queueName string) *ExchangePublisher {
	return &ExchangePublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ExchangePublisher) Record(ctx context.Context, exchange *model.Exchange) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	msg, err := exchangeMessage(exchange)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		msg,
	); err != nil {
		return fmt.Errorf("publish exchange failed: %w", err)
	}
	return nil
}

// exchangeMessage encodes exchange as a persistent JSON message.
func exchangeMessage(exchange *model.Exchange) (amqp.Publishing, error) {
	payload, err := json.Marshal(exchange)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal exchange payload failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}, nil
}
