package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PayPal webhook event types handled by the reconciler. Everything else is
// acknowledged and ignored.
const (
	EventSaleCompleted = "PAYMENT.SALE.COMPLETED"
	EventSaleRefunded  = "PAYMENT.SALE.REFUNDED"
	EventSaleReversed  = "PAYMENT.SALE.REVERSED"
)

var validate = validator.New()

type Money struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type Payer struct {
	PayerInfo struct {
		Email string `json:"email"`
	} `json:"payer_info"`
	EmailAddress string `json:"email_address"`
}

type Item struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// SaleResource is the resource shape of sale-completed and sale-reversed
// events. For reversals the id is the original sale id.
type SaleResource struct {
	ID       string `json:"id"`
	Amount   Money  `json:"amount"`
	Payer    Payer  `json:"payer"`
	ItemList struct {
		Items []Item `json:"items"`
	} `json:"item_list"`
}

// RefundResource is the resource shape of sale-refunded events. SaleID
// references the original sale the refund reverses.
type RefundResource struct {
	ID     string `json:"id"`
	SaleID string `json:"sale_id"`
	Amount Money  `json:"amount"`
}

// WebhookEvent is the typed form of a PayPal webhook envelope. The payload
// shape is validated once here so handler logic never repeats optional-field
// fallbacks. Exactly one of Sale or Refund is set for recognized event types.
type WebhookEvent struct {
	ID        string `validate:"max=191"`
	EventType string `validate:"required,max=100"`
	Sale      *SaleResource
	Refund    *RefundResource
}

// PurchaserEmail returns the payer email, preferring the payer_info email
// over the top-level email_address field.
func (s *SaleResource) PurchaserEmail() string {
	if email := strings.TrimSpace(s.Payer.PayerInfo.Email); email != "" {
		return email
	}
	return strings.TrimSpace(s.Payer.EmailAddress)
}

// ParseWebhookEvent decodes and validates a raw PayPal webhook envelope.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var envelope struct {
		ID        string          `json:"id"`
		EventType string          `json:"event_type"`
		Resource  json.RawMessage `json:"resource"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	ev := &WebhookEvent{
		ID:        strings.TrimSpace(envelope.ID),
		EventType: strings.TrimSpace(envelope.EventType),
	}
	if err := validate.Struct(ev); err != nil {
		return nil, errors.New("webhook payload missing event_type")
	}

	switch ev.EventType {
	case EventSaleCompleted, EventSaleReversed:
		var sale SaleResource
		if len(envelope.Resource) > 0 {
			if err := json.Unmarshal(envelope.Resource, &sale); err != nil {
				return nil, fmt.Errorf("invalid sale resource: %w", err)
			}
		}
		ev.Sale = &sale
	case EventSaleRefunded:
		var refund RefundResource
		if len(envelope.Resource) > 0 {
			if err := json.Unmarshal(envelope.Resource, &refund); err != nil {
				return nil, fmt.Errorf("invalid refund resource: %w", err)
			}
		}
		ev.Refund = &refund
	}
	return ev, nil
}
