package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
)

// Notifier dispatches order lifecycle notifications. Delivery is
// fire-and-forget: a failed publish must never roll back ledger state, so
// callers log the returned error and move on.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, order *domain.Order) error
	NotifyStatusUpdate(ctx context.Context, order *domain.Order, from, to domain.OrderStatus, actor string) error
	NotifyCancelled(ctx context.Context, order *domain.Order, reason string) error
}

// Producer publishes notification events to Kafka, one topic per event kind.
type Producer struct {
	brokers      string
	newOrder     *kafka.Writer
	statusUpdate *kafka.Writer
	cancelled    *kafka.Writer
	logger       *zap.Logger
}

func NewProducer(brokers string, logger *zap.Logger) *Producer {
	writer := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return &Producer{
		brokers:      brokers,
		newOrder:     writer(TopicNewOrder),
		statusUpdate: writer(TopicOrderStatusUpdate),
		cancelled:    writer(TopicOrderCancelled),
		logger:       logger,
	}
}

// Ping dials the broker to confirm it is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", p.brokers)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event",
			zap.String("topic", writer.Topic),
			zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload}); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("topic", writer.Topic),
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	return nil
}

func (p *Producer) NotifyNewOrder(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, p.newOrder, order.OrderID, NewOrderEvent{
		EventID:     uuid.New().String(),
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now().UTC(),
	})
}

func (p *Producer) NotifyStatusUpdate(ctx context.Context, order *domain.Order, from, to domain.OrderStatus, actor string) error {
	return p.publish(ctx, p.statusUpdate, order.OrderID, OrderStatusUpdateEvent{
		EventID:    uuid.New().String(),
		OrderID:    order.OrderID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
	})
}

func (p *Producer) NotifyCancelled(ctx context.Context, order *domain.Order, reason string) error {
	return p.publish(ctx, p.cancelled, order.OrderID, OrderCancelledEvent{
		EventID:   uuid.New().String(),
		OrderID:   order.OrderID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Producer) Close() error {
	for _, w := range []*kafka.Writer{p.newOrder, p.statusUpdate, p.cancelled} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Nop drops every notification; used in tests and when Kafka is disabled.
type Nop struct{}

func (Nop) NotifyNewOrder(context.Context, *domain.Order) error { return nil }

func (Nop) NotifyStatusUpdate(context.Context, *domain.Order, domain.OrderStatus, domain.OrderStatus, string) error {
	return nil
}

func (Nop) NotifyCancelled(context.Context, *domain.Order, string) error { return nil }
