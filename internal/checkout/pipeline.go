package checkout

import (
	"context"
	"errors"
	"sync"

	"swad-order-service/internal/availability"
	"swad-order-service/internal/cart"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSubmissionInFlight = errors.New("an order submission is already in progress")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrStoreClosed        = errors.New("store is not accepting orders")
)

// StoreClosedError carries the availability reason alongside the sentinel so
// callers can both errors.Is-match ErrStoreClosed and show the user why.
type StoreClosedError struct {
	ReasonCode string
	Message    string
}

func (e *StoreClosedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrStoreClosed.Error()
}

func (e *StoreClosedError) Is(target error) bool {
	return target == ErrStoreClosed
}

type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

// Pipeline drives a cart through order submission. Submissions are
// single-flight: a second Submit while one is running fails immediately
// instead of queueing a duplicate order.
type Pipeline struct {
	gateway  OrderGateway
	cart     *cart.Cart
	autosave *Debouncer
	logger   *zap.Logger

	mu sync.Mutex
	// guarded by mu
	state          State
	checkoutOpen   bool
	idempotencyKey string
	lastErr        error
	lastResult     *OrderResult
	verdict        *availability.Verdict
}

func NewPipeline(gateway OrderGateway, c *cart.Cart, autosave *Debouncer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		gateway:  gateway,
		cart:     c,
		autosave: autosave,
		logger:   logger,
		state:    StateIdle,
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetCheckoutOpen tracks whether the checkout panel is showing. The flag is
// transient view state; a successful submission closes it along with the
// cart reset.
func (p *Pipeline) SetCheckoutOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkoutOpen = open
}

func (p *Pipeline) CheckoutOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkoutOpen
}

func (p *Pipeline) LastResult() (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastResult, p.lastErr
}

// RefreshAvailability pulls the store verdict so Submit can fail fast without
// another round trip. The server still enforces the window on submission.
func (p *Pipeline) RefreshAvailability(ctx context.Context) (*availability.Verdict, error) {
	verdict, err := p.gateway.FetchAvailability(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.verdict = verdict
	p.mu.Unlock()
	return verdict, nil
}

// Submit places the order built from the current cart. On success the cart
// is reset and the idempotency key retired; on failure both are kept so a
// retry resubmits the same logical order and the server can deduplicate it.
func (p *Pipeline) Submit(ctx context.Context, customer Customer, paymentMethod string) (*OrderResult, error) {
	p.mu.Lock()
	if p.state == StateSubmitting {
		p.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if p.cart.IsEmpty() {
		p.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if p.verdict != nil && !p.verdict.CanAcceptOrders {
		closed := &StoreClosedError{ReasonCode: p.verdict.ReasonCode, Message: p.verdict.Message}
		p.mu.Unlock()
		return nil, closed
	}
	if p.idempotencyKey == "" {
		p.idempotencyKey = uuid.NewString()
	}
	key := p.idempotencyKey
	p.state = StateSubmitting
	p.lastErr = nil
	p.lastResult = nil
	p.mu.Unlock()

	// A queued autosave racing the submission could persist a draft for a
	// cart that is about to become an order.
	if p.autosave != nil {
		p.autosave.Cancel()
	}

	req := buildRequest(p.cart.Snapshot(), customer, paymentMethod)
	result, err := p.gateway.CreateOrder(ctx, req, key)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateFailed
		p.lastErr = err
		if p.logger != nil {
			p.logger.Warn("order submission failed", zap.String("idempotencyKey", key), zap.Error(err))
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "STORE_CLOSED" {
			return nil, &StoreClosedError{Message: apiErr.Message}
		}
		return nil, err
	}

	p.state = StateSucceeded
	p.checkoutOpen = false
	p.lastResult = result
	p.idempotencyKey = ""
	p.cart.Reset()
	if p.logger != nil {
		p.logger.Info("order placed", zap.String("orderNumber", result.OrderNumber))
	}
	return result, nil
}

// Reset returns the pipeline to idle so a new submission sequence can start.
// The idempotency key survives a failure on purpose.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSubmitting {
		return
	}
	p.state = StateIdle
}

func buildRequest(lines []cart.Line, customer Customer, paymentMethod string) CreateOrderRequest {
	req := CreateOrderRequest{
		ComboLines:    []OrderLinePayload{},
		ItemLines:     []OrderLinePayload{},
		SnackLines:    []OrderLinePayload{},
		Customer:      customer,
		PaymentMethod: paymentMethod,
	}
	for _, line := range lines {
		payload := OrderLinePayload{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
		switch line.Category {
		case cart.CategoryCombo:
			req.ComboLines = append(req.ComboLines, payload)
		case cart.CategoryItem:
			req.ItemLines = append(req.ItemLines, payload)
		case cart.CategorySnack:
			req.SnackLines = append(req.SnackLines, payload)
		}
	}
	return req
}
