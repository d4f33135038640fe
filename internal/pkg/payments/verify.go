package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vidpersona/payments/internal/pkg/env"
)

const defaultPayPalAPIBaseURL = "https://api-m.paypal.com"

// Verifier checks webhook deliveries against PayPal's
// verify-webhook-signature API. Verification is optional: it runs only when
// a webhook id and API credentials are configured.
type Verifier struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	APIBaseURL   string

	HTTPClient *http.Client
}

// SignatureHeaders carries the transmission headers PayPal attaches to each
// webhook delivery.
type SignatureHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

func NewVerifierFromEnv() *Verifier {
	return &Verifier{
		ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		WebhookID:    strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether signature verification is configured.
func (v *Verifier) Enabled() bool {
	return v.WebhookID != "" && v.ClientID != "" && v.ClientSecret != ""
}

// VerifySignature calls PayPal to confirm that a delivery was genuinely sent
// for the configured webhook. It returns false for any verification status
// other than SUCCESS.
func (v *Verifier) VerifySignature(ctx context.Context, headers SignatureHeaders, rawEvent []byte) (bool, error) {
	if !v.Enabled() {
		return false, errors.New("webhook verification is not configured")
	}

	token, err := v.fetchToken(ctx)
	if err != nil {
		return false, err
	}

	reqBody := map[string]any{
		"auth_algo":         headers.AuthAlgo,
		"cert_url":          headers.CertURL,
		"transmission_id":   headers.TransmissionID,
		"transmission_sig":  headers.TransmissionSig,
		"transmission_time": headers.TransmissionTime,
		"webhook_id":        v.WebhookID,
		"webhook_event":     json.RawMessage(rawEvent),
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return false, err
	}

	endpoint := strings.TrimRight(v.APIBaseURL, "/") + "/v1/notifications/verify-webhook-signature"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("paypal signature verification failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}

func (v *Verifier) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	endpoint := strings.TrimRight(v.APIBaseURL, "/") + "/v1/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(v.ClientID, v.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("paypal token response missing access_token")
	}
	return out.AccessToken, nil
}
