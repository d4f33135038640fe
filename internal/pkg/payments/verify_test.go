package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newVerifyServer(t *testing.T, status string) (*httptest.Server, *SignatureHeaders) {
	t.Helper()
	var seen SignatureHeaders
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-123"})
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			TransmissionID string `json:"transmission_id"`
			WebhookID      string `json:"webhook_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		seen.TransmissionID = body.TransmissionID
		if body.WebhookID != "WH-CONFIG" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": status})
	})
	return httptest.NewServer(mux), &seen
}

func testVerifier(baseURL string) *Verifier {
	return &Verifier{
		ClientID:     "client",
		ClientSecret: "secret",
		WebhookID:    "WH-CONFIG",
		APIBaseURL:   baseURL,
		HTTPClient:   http.DefaultClient,
	}
}

func TestVerifySignature_Success(t *testing.T) {
	srv, seen := newVerifyServer(t, "SUCCESS")
	defer srv.Close()

	v := testVerifier(srv.URL)
	ok, err := v.VerifySignature(context.Background(),
		SignatureHeaders{TransmissionID: "tx-1"}, []byte(`{"event_type":"PAYMENT.SALE.COMPLETED"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected verification to succeed")
	}
	if seen.TransmissionID != "tx-1" {
		t.Fatalf("transmission id not forwarded, got %q", seen.TransmissionID)
	}
}

func TestVerifySignature_Failure(t *testing.T) {
	srv, _ := newVerifyServer(t, "FAILURE")
	defer srv.Close()

	v := testVerifier(srv.URL)
	ok, err := v.VerifySignature(context.Background(), SignatureHeaders{}, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected FAILURE status to reject the delivery")
	}
}

func TestVerifySignature_BadCredentials(t *testing.T) {
	srv, _ := newVerifyServer(t, "SUCCESS")
	defer srv.Close()

	v := testVerifier(srv.URL)
	v.ClientSecret = "wrong"
	if _, err := v.VerifySignature(context.Background(), SignatureHeaders{}, []byte(`{}`)); err == nil {
		t.Fatalf("expected an error for rejected credentials")
	}
}

func TestVerifierEnabled(t *testing.T) {
	v := testVerifier("https://example.test")
	if !v.Enabled() {
		t.Fatalf("fully configured verifier must be enabled")
	}
	v.WebhookID = ""
	if v.Enabled() {
		t.Fatalf("verifier without webhook id must be disabled")
	}
}
