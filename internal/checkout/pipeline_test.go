package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swad-order-service/internal/availability"
	"swad-order-service/internal/cart"
)

type fakeGateway struct {
	mu       sync.Mutex
	verdict  *availability.Verdict
	orderErr error
	block    chan struct{}

	createCalls int
	lastKey     string
	lastReq     CreateOrderRequest
	draftSaves  int
}

func (f *fakeGateway) FetchAvailability(ctx context.Context) (*availability.Verdict, error) {
	if f.verdict == nil {
		return &availability.Verdict{IsOpen: true, CanAcceptOrders: true}, nil
	}
	return f.verdict, nil
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*OrderResult, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastKey = idempotencyKey
	f.lastReq = req
	block := f.block
	err := f.orderErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &OrderResult{OrderNumber: "SOT-2026-000042", Status: "PLACED", TotalAmount: 120}, nil
}

func (f *fakeGateway) SaveDraft(ctx context.Context, sessionKey string, lines []cart.Line, total float64) error {
	f.mu.Lock()
	f.draftSaves++
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) DeleteDraft(ctx context.Context, sessionKey string) error {
	return nil
}

func seededCart() *cart.Cart {
	c := cart.New()
	c.Add(cart.Line{Category: cart.CategoryCombo, ItemID: 1, Name: "Breakfast Combo", UnitPrice: 120, Quantity: 1})
	return c
}

func TestSubmitPlacesOrderAndResetsCart(t *testing.T) {
	gateway := &fakeGateway{}
	c := seededCart()
	p := NewPipeline(gateway, c, nil, nil)

	result, err := p.Submit(context.Background(), Customer{Name: "Meena", Phone: "9876543210"}, "COD")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.OrderNumber != "SOT-2026-000042" {
		t.Fatalf("OrderNumber = %q", result.OrderNumber)
	}
	if p.State() != StateSucceeded {
		t.Fatalf("State() = %q, want %q", p.State(), StateSucceeded)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty after a successful order")
	}
	if gateway.lastKey == "" {
		t.Fatalf("submission must carry an idempotency key")
	}
	if len(gateway.lastReq.ComboLines) != 1 {
		t.Fatalf("ComboLines = %d, want 1", len(gateway.lastReq.ComboLines))
	}
}

func TestCheckoutPanelClosesOnSuccessOnly(t *testing.T) {
	gateway := &fakeGateway{orderErr: errors.New("network down")}
	p := NewPipeline(gateway, seededCart(), nil, nil)

	p.SetCheckoutOpen(true)
	if !p.CheckoutOpen() {
		t.Fatal("CheckoutOpen() = false after opening")
	}

	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err == nil {
		t.Fatal("Submit() should fail with the gateway down")
	}
	if !p.CheckoutOpen() {
		t.Fatal("a failed submission must leave the checkout panel open for retry")
	}

	gateway.orderErr = nil
	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if p.CheckoutOpen() {
		t.Fatal("a successful submission must close the checkout panel")
	}
}

func TestSubmitIsSingleFlight(t *testing.T) {
	gateway := &fakeGateway{block: make(chan struct{})}
	p := NewPipeline(gateway, seededCart(), nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "ONLINE")
		done <- err
	}()

	for i := 0; ; i++ {
		if p.State() == StateSubmitting {
			break
		}
		if i > 100 {
			t.Fatalf("pipeline never entered submitting state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "ONLINE"); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("second Submit() error = %v, want ErrSubmissionInFlight", err)
	}

	close(gateway.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if gateway.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", gateway.createCalls)
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	p := NewPipeline(&fakeGateway{}, cart.New(), nil, nil)
	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("Submit() error = %v, want ErrEmptyCart", err)
	}
}

func TestSubmitFailsFastWhenStoreClosed(t *testing.T) {
	gateway := &fakeGateway{verdict: &availability.Verdict{
		IsOpen:          false,
		CanAcceptOrders: false,
		ReasonCode:      availability.ReasonOutsideHours,
		Message:         "We open again at 07:30.",
	}}
	p := NewPipeline(gateway, seededCart(), nil, nil)

	if _, err := p.RefreshAvailability(context.Background()); err != nil {
		t.Fatalf("RefreshAvailability() error = %v", err)
	}
	_, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD")
	if !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Submit() error = %v, want ErrStoreClosed", err)
	}
	var closed *StoreClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("Submit() error = %T, want *StoreClosedError", err)
	}
	if closed.ReasonCode != availability.ReasonOutsideHours {
		t.Errorf("ReasonCode = %q, want %q", closed.ReasonCode, availability.ReasonOutsideHours)
	}
	if closed.Message != "We open again at 07:30." {
		t.Errorf("Message = %q, want the verdict message", closed.Message)
	}
	if gateway.createCalls != 0 {
		t.Fatalf("createCalls = %d, want 0 on local fail-fast", gateway.createCalls)
	}
}

func TestSubmitMapsServerClosedError(t *testing.T) {
	gateway := &fakeGateway{orderErr: &APIError{Status: 409, Code: "STORE_CLOSED", Message: "Store is closed right now."}}
	p := NewPipeline(gateway, seededCart(), nil, nil)

	_, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD")
	if !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("Submit() error = %v, want ErrStoreClosed", err)
	}
	var closed *StoreClosedError
	if !errors.As(err, &closed) || closed.Message != "Store is closed right now." {
		t.Fatalf("Submit() error = %v, want the server's closed message", err)
	}
	if p.State() != StateFailed {
		t.Fatalf("State() = %q, want %q", p.State(), StateFailed)
	}
}

func TestSubmitRetryReusesIdempotencyKey(t *testing.T) {
	gateway := &fakeGateway{orderErr: errors.New("network down")}
	c := seededCart()
	p := NewPipeline(gateway, c, nil, nil)

	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err == nil {
		t.Fatalf("Submit() should fail while the network is down")
	}
	firstKey := gateway.lastKey
	if firstKey == "" {
		t.Fatalf("failed submission must still carry a key")
	}
	if c.IsEmpty() {
		t.Fatalf("failed submission must preserve the cart")
	}

	gateway.orderErr = nil
	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if gateway.lastKey != firstKey {
		t.Fatalf("retry key = %q, want the original %q", gateway.lastKey, firstKey)
	}

	// A fresh sequence after success mints a new key.
	c.Add(cart.Line{Category: cart.CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 1})
	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err != nil {
		t.Fatalf("third Submit() error = %v", err)
	}
	if gateway.lastKey == firstKey {
		t.Fatalf("new sequence reused the old idempotency key")
	}
}

func TestSubmitCancelsPendingAutosave(t *testing.T) {
	gateway := &fakeGateway{}
	saved := make(chan struct{}, 1)
	d := NewDebouncer(30*time.Millisecond, func(ctx context.Context) error {
		saved <- struct{}{}
		return nil
	}, nil)
	p := NewPipeline(gateway, seededCart(), d, nil)

	d.Schedule()
	if _, err := p.Submit(context.Background(), Customer{Phone: "9876543210"}, "COD"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-saved:
		t.Fatalf("pending autosave ran despite submission")
	case <-time.After(80 * time.Millisecond):
	}
}
