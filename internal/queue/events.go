package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "swad.events"

	NotificationsQueue = "swad.notifications"
	NotificationsDLQ   = "swad.notifications.dlq"

	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status.updated"
)

// OrderEvent is the envelope published for every order lifecycle change.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       int64     `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	TrackingCode  string    `json:"trackingCode,omitempty"`
	Phone         string    `json:"phone"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EnsureOrderEventsTopology declares the exchange and the notifications
// queue with its dead letter companion. Safe to call on every start.
func EnsureOrderEventsTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchange(EventsExchange, "topic"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(NotificationsDLQ, nil); err != nil {
		return err
	}
	// The dead routing key must not start with "order." or dead letters
	// would loop back into the live queue.
	if err := qc.BindQueue(NotificationsDLQ, EventsExchange, "dead.notifications"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(NotificationsQueue, amqp.Table{
		"x-dead-letter-exchange":    EventsExchange,
		"x-dead-letter-routing-key": "dead.notifications",
	}); err != nil {
		return err
	}
	// '#' so multi-segment keys like order.status.updated also match.
	return qc.BindQueue(NotificationsQueue, EventsExchange, "order.#")
}

func PublishOrderEvent(ctx context.Context, qc *Client, evt OrderEvent) error {
	if qc == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	return qc.PublishJSON(ctx, EventsExchange, evt.Type, evt)
}

// ProcessOrderEvent turns a lifecycle event into customer notification rows.
// SMS delivery itself is handled by an external sender polling the table.
func ProcessOrderEvent(ctx context.Context, db *pgxpool.Pool, body []byte) error {
	if db == nil {
		return nil
	}

	var evt OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Phone) == "" {
		return nil
	}

	var message string
	switch evt.Type {
	case EventOrderCreated:
		message = fmt.Sprintf("Thanks for your order %s! We will confirm it shortly.", evt.OrderNumber)
		if strings.EqualFold(evt.PaymentMethod, "COD") && evt.TrackingCode != "" {
			message = fmt.Sprintf("Thanks for your order %s! Pay on delivery and quote %s.", evt.OrderNumber, evt.TrackingCode)
		}
	case EventOrderStatusUpdated:
		message = fmt.Sprintf("Order %s is now %s.", evt.OrderNumber, strings.ReplaceAll(evt.Status, "_", " "))
	default:
		return nil
	}

	_, err := db.Exec(ctx,
		`insert into order_notifications (order_id, channel, recipient, body) values ($1, 'sms', $2, $3)`,
		evt.OrderID, evt.Phone, message,
	)
	return err
}
