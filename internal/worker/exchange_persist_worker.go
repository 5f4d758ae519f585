package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docanalyst/internal/model"
	"docanalyst/internal/platform/rabbitmq"
)

type ExchangeWriter interface {
	Create(ctx context.Context, exchange *model.Exchange) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, documentID uint) error
}

// ExchangePersistWorker drains the persist queue into the exchange store.
type ExchangePersistWorker struct {
	conn      *amqp.Connection
	repo      ExchangeWriter
	cache     CacheInvalidator
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExchangePersistWorker(conn *amqp.Connection, repo ExchangeWriter, cache CacheInvalidator, queueName string, logger *slog.Logger) *ExchangePersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExchangePersistWorker{
		conn:      conn,
		repo:      repo,
		cache:     cache,
		queueName: queueName,
		logger:    logger.With("component", "exchange_persist_worker"),
	}
}

func (w *ExchangePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.logger.Info("worker started", "queue", w.queueName)
	return nil
}

func (w *ExchangePersistWorker) handle(ctx context.Context, d amqp.Delivery) {
	var exchange model.Exchange
	if err := json.Unmarshal(d.Body, &exchange); err != nil {
		w.logger.Error("decode exchange failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.repo.Create(ctx, &exchange); err != nil {
		w.logger.Error("persist exchange failed",
			"error", err,
			"document_id", exchange.DocumentID,
			"outcome", exchange.Outcome,
		)
		_ = d.Nack(false, false)
		return
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, exchange.DocumentID); err != nil {
			w.logger.Warn("invalidate exchange cache failed", "error", err, "document_id", exchange.DocumentID)
		}
	}

	_ = d.Ack(false)
}

func (w *ExchangePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
