package utils

import "testing"

func TestOrderTrackingTokenRoundTrip(t *testing.T) {
	token := CreateOrderTrackingToken("secret", "9876543210", "SOT-2026-000042")

	if !VerifyOrderTrackingToken("secret", token, "9876543210", "SOT-2026-000042") {
		t.Fatalf("valid token rejected")
	}

	tests := []struct {
		name        string
		secret      string
		token       string
		phone       string
		orderNumber string
	}{
		{name: "wrong secret", secret: "other", token: token, phone: "9876543210", orderNumber: "SOT-2026-000042"},
		{name: "wrong phone", secret: "secret", token: token, phone: "9123456789", orderNumber: "SOT-2026-000042"},
		{name: "wrong order", secret: "secret", token: token, phone: "9876543210", orderNumber: "SOT-2026-000043"},
		{name: "malformed token", secret: "secret", token: "nonsense", phone: "9876543210", orderNumber: "SOT-2026-000042"},
		{name: "empty token", secret: "secret", token: "", phone: "9876543210", orderNumber: "SOT-2026-000042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyOrderTrackingToken(tt.secret, tt.token, tt.phone, tt.orderNumber) {
				t.Fatalf("token verified, want rejection")
			}
		})
	}
}
