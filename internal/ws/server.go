package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"swad-order-service/internal/config"
	"swad-order-service/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	orderRealtime *orderRealtime
}

func NewServer(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{
		DB:            db,
		Logger:        logger,
		Config:        cfg,
		orderRealtime: newOrderRealtime(db, logger),
	}
}

// wsClient serialises writes; gorilla connections allow one writer at a time.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

// orderRealtime fans order status changes out to the customers watching
// them. Changes arrive over a single Postgres LISTEN connection; clients are
// keyed by order number.
type orderRealtime struct {
	db     *pgxpool.Pool
	logger *zap.Logger

	started sync.Once
	mu      sync.RWMutex
	subs    map[string]map[*wsClient]struct{}
}

func newOrderRealtime(db *pgxpool.Pool, logger *zap.Logger) *orderRealtime {
	return &orderRealtime{
		db:     db,
		logger: logger,
		subs:   make(map[string]map[*wsClient]struct{}),
	}
}

func (or *orderRealtime) ensureStarted() {
	or.started.Do(func() {
		go or.listenLoop(context.Background())
	})
}

func (or *orderRealtime) subscribe(orderNumber string, client *wsClient) (unsubscribe func()) {
	key := strings.TrimSpace(orderNumber)
	if key == "" {
		return func() {}
	}

	or.mu.Lock()
	if or.subs[key] == nil {
		or.subs[key] = make(map[*wsClient]struct{})
	}
	or.subs[key][client] = struct{}{}
	or.mu.Unlock()

	return func() {
		or.mu.Lock()
		clients := or.subs[key]
		delete(clients, client)
		if len(clients) == 0 {
			delete(or.subs, key)
		}
		or.mu.Unlock()
	}
}

func (or *orderRealtime) broadcast(orderNumber string, message any) {
	key := strings.TrimSpace(orderNumber)
	if key == "" {
		return
	}

	or.mu.RLock()
	clientsMap := or.subs[key]
	clients := make([]*wsClient, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	or.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			or.mu.Lock()
			if current := or.subs[key]; current != nil {
				delete(current, c)
				if len(current) == 0 {
					delete(or.subs, key)
				}
			}
			or.mu.Unlock()
		}
	}
}

// orderUpdate mirrors the payload handlers send through pg_notify.
type orderUpdate struct {
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (or *orderRealtime) fetchOrderStatus(ctx context.Context, orderNumber string) (string, time.Time) {
	var status string
	var updated time.Time
	err := or.db.QueryRow(ctx,
		`select status, updated_at from orders where order_number = $1`,
		orderNumber,
	).Scan(&status, &updated)
	if err != nil {
		return "", time.Time{}
	}
	return status, updated
}

func (or *orderRealtime) listenLoop(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := or.db.Acquire(ctx)
		if err != nil {
			if or.logger != nil {
				or.logger.Warn("order LISTEN acquire failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, `listen public_order_updates`); err != nil {
			conn.Release()
			if or.logger != nil {
				or.logger.Warn("order LISTEN failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}

			var update orderUpdate
			if err := json.Unmarshal([]byte(n.Payload), &update); err != nil || update.OrderNumber == "" {
				continue
			}

			or.broadcast(update.OrderNumber, map[string]any{
				"type":      "order.refresh",
				"status":    update.Status,
				"updatedAt": update.UpdatedAt,
			})
		}

		conn.Release()
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

// PublicOrderWS streams status changes for one order. The caller proves
// access with the signed tracking token handed out by the order detail
// endpoint.
func (s *Server) PublicOrderWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	orderNumber := strings.TrimSpace(r.URL.Query().Get("orderNumber"))
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if orderNumber == "" || token == "" {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "invalid request"})
		return
	}

	phone, ok := s.phoneForOrder(r.Context(), orderNumber)
	if !ok || !utils.VerifyOrderTrackingToken(s.Config.OrderTrackingTokenSecret, token, phone, orderNumber) {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "order not found"})
		return
	}

	s.orderRealtime.ensureStarted()
	ctx := r.Context()
	client := &wsClient{conn: conn}
	unsubscribe := s.orderRealtime.subscribe(orderNumber, client)
	defer unsubscribe()

	// Initial snapshot so the client does not wait for the next change.
	status, updatedAt := s.orderRealtime.fetchOrderStatus(ctx, orderNumber)
	_ = client.writeJSON(map[string]any{"type": "order.refresh", "status": status, "updatedAt": updatedAt})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
	case <-ctx.Done():
	}
}

func (s *Server) phoneForOrder(ctx context.Context, orderNumber string) (string, bool) {
	var phone string
	err := s.DB.QueryRow(ctx,
		`select customer_phone from orders where order_number = $1`,
		orderNumber,
	).Scan(&phone)
	if err != nil {
		return "", false
	}
	return phone, true
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
