package razorpay

import (
	"testing"
)

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test-secret"
	sig := PaymentSignature(secret, "order_abc", "pay_xyz")

	if !VerifyPaymentSignature(secret, "order_abc", "pay_xyz", sig) {
		t.Error("expected valid signature to verify")
	}
}

func TestVerifyPaymentSignature_WrongSecret(t *testing.T) {
	sig := PaymentSignature("other-secret", "order_abc", "pay_xyz")

	if VerifyPaymentSignature("test-secret", "order_abc", "pay_xyz", sig) {
		t.Error("signature from the wrong secret must not verify")
	}
}

func TestVerifyPaymentSignature_WrongPair(t *testing.T) {
	secret := "test-secret"
	sig := PaymentSignature(secret, "order_abc", "pay_xyz")

	if VerifyPaymentSignature(secret, "order_abc", "pay_other", sig) {
		t.Error("signature over a different id pair must not verify")
	}
	if VerifyPaymentSignature(secret, "order_other", "pay_xyz", sig) {
		t.Error("signature over a different order id must not verify")
	}
}

func TestVerifyWebhookSignature_RawBody(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"event":"payment.captured","payload":{ "x": 1 }}`)

	sig := WebhookSignature(secret, body)
	if !VerifyWebhookSignature(secret, body, sig) {
		t.Error("expected webhook signature over raw body to verify")
	}

	// Any byte-level change, even whitespace, must break verification.
	altered := []byte(`{"event":"payment.captured","payload":{"x":1}}`)
	if VerifyWebhookSignature(secret, altered, sig) {
		t.Error("re-serialized body must not verify against original signature")
	}
}

func TestVerifyWebhookSignature_Empty(t *testing.T) {
	if VerifyWebhookSignature("test-secret", []byte("{}"), "") {
		t.Error("empty signature must not verify")
	}
}
