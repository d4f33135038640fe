package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidpersona/payments/app/models"
	"github.com/vidpersona/payments/internal/pkg/cache"
)

const mappingCacheTTL = 10 * time.Minute

// Service reconciles provider webhook events into purchase events and
// entitlements. It holds no state between invocations; correctness under
// concurrent deliveries rests on the store's conflict-target upserts.
type Service struct {
	repo     Repository
	log      *zap.Logger
	useCache bool
	now      func() time.Time
}

// NewService creates a reconciliation service from an injected repository.
// The product-mapping cache is left off; tests use this constructor.
func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle
// with the product-mapping cache enabled.
func NewServiceFromDB(db *gorm.DB, log *zap.Logger) *Service {
	return NewService(NewRepository(db), log).WithMappingCache()
}

// WithMappingCache routes product-mapping lookups through Redis.
func (s *Service) WithMappingCache() *Service {
	s.useCache = true
	return s
}

// HandleEvent dispatches a parsed webhook event. Unrecognized event types are
// acknowledged without side effects so the provider does not retry them.
func (s *Service) HandleEvent(ctx context.Context, ev *WebhookEvent, raw []byte) (*Result, error) {
	switch ev.EventType {
	case EventSaleCompleted:
		return s.handleSaleCompleted(ctx, ev, raw)
	case EventSaleRefunded:
		return s.handleSaleRefunded(ctx, ev, raw)
	case EventSaleReversed:
		return s.handleSaleReversed(ctx, ev, raw)
	default:
		s.log.Info("ignoring unhandled webhook event type", zap.String("event_type", ev.EventType))
		return &Result{}, nil
	}
}

func (s *Service) handleSaleCompleted(ctx context.Context, ev *WebhookEvent, raw []byte) (*Result, error) {
	_ = ctx
	sale := ev.Sale

	email := sale.PurchaserEmail()
	if email == "" {
		s.log.Warn("sale completed without payer email, nothing to reconcile",
			zap.String("order_id", sale.ID))
		return &Result{}, nil
	}

	event := &models.PurchaseEvent{
		Provider:        models.PaymentProviderPayPal,
		ProviderEventID: providerEventID(ev.ID, raw),
		PurchaserEmail:  email,
		AmountCents:     AmountToCents(sale.Amount.Total),
		Currency:        NormalizeCurrency(sale.Amount.Currency),
		Status:          models.PurchaseStatusPaid,
		ProviderOrderID: sale.ID,
		RawPayloadJSON:  string(raw),
		ProcessedAt:     s.now().UTC(),
	}
	created, stored, err := s.repo.CreatePurchaseEventIfNotExists(event)
	if err != nil {
		return nil, fmt.Errorf("record purchase event: %w", err)
	}
	if !created {
		s.log.Info("duplicate webhook delivery, purchase event already recorded",
			zap.String("provider_event_id", ev.ID))
		return &Result{Duplicate: true, EventStatus: models.PurchaseStatusPaid}, nil
	}

	items := sale.ItemList.Items
	if len(items) == 0 {
		s.log.Warn("sale completed without line items, no entitlement created",
			zap.String("order_id", sale.ID))
		return &Result{Handled: true, EventStatus: models.PurchaseStatusPaid}, nil
	}

	granted := 0
	for _, item := range items {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			continue
		}
		mapping, err := s.lookupMapping(models.PaymentProviderPayPal, sku)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.log.Warn("no product mapping for provider sku, skipping item",
					zap.String("provider_product_id", sku), zap.String("order_id", sale.ID))
			} else {
				s.log.Error("product mapping lookup failed, skipping item",
					zap.String("provider_product_id", sku), zap.Error(err))
			}
			continue
		}

		grant := EntitlementGrant{
			Provider:        models.PaymentProviderPayPal,
			OrderID:         sale.ID,
			ProductSKU:      mapping.ProductSKU,
			PurchaserEmail:  email,
			Status:          models.EntitlementStatusActive,
			PurchaseEventID: stored.ID,
		}
		if err := s.applyEntitlement(grant); err != nil {
			// The audit record is the primary success criterion; a failed
			// entitlement write must not abort sibling items.
			s.log.Error("failed to apply entitlement",
				zap.String("product_sku", mapping.ProductSKU), zap.Error(err))
			continue
		}
		granted++
	}

	return &Result{Handled: true, EventStatus: models.PurchaseStatusPaid, Entitlements: granted}, nil
}

func (s *Service) handleSaleRefunded(ctx context.Context, ev *WebhookEvent, raw []byte) (*Result, error) {
	_ = ctx
	refund := ev.Refund

	if refund.SaleID == "" {
		s.log.Warn("refund without sale_id, cannot reconcile", zap.String("refund_id", refund.ID))
		return &Result{}, nil
	}

	original, err := s.repo.FindPurchaseEventByOrderID(models.PaymentProviderPayPal, refund.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("refund references unknown sale, skipping",
				zap.String("sale_id", refund.SaleID))
			return &Result{}, nil
		}
		return nil, fmt.Errorf("original purchase lookup: %w", err)
	}

	event := &models.PurchaseEvent{
		Provider:        models.PaymentProviderPayPal,
		ProviderEventID: providerEventID(ev.ID, raw),
		PurchaserEmail:  original.PurchaserEmail,
		AmountCents:     AmountToCents(refund.Amount.Total),
		Currency:        NormalizeCurrency(refund.Amount.Currency),
		Status:          models.PurchaseStatusRefunded,
		ProviderOrderID: refund.ID,
		RawPayloadJSON:  string(raw),
		ProcessedAt:     s.now().UTC(),
	}
	created, _, err := s.repo.CreatePurchaseEventIfNotExists(event)
	if err != nil {
		return nil, fmt.Errorf("record refund event: %w", err)
	}
	if !created {
		return &Result{Duplicate: true, EventStatus: models.PurchaseStatusRefunded}, nil
	}

	updated, err := s.repo.UpdateUserEntitlementStatusByOrder(
		models.PaymentProviderPayPal, refund.SaleID, models.EntitlementStatusRefunded)
	if err != nil {
		s.log.Error("failed to mark entitlements refunded",
			zap.String("sale_id", refund.SaleID), zap.Error(err))
	}

	return &Result{Handled: true, EventStatus: models.PurchaseStatusRefunded, Entitlements: int(updated)}, nil
}

func (s *Service) handleSaleReversed(ctx context.Context, ev *WebhookEvent, raw []byte) (*Result, error) {
	_ = ctx
	sale := ev.Sale

	// Never fail to log a chargeback, even without a payer identity.
	email := sale.PurchaserEmail()
	if email == "" {
		email = "unknown"
	}

	event := &models.PurchaseEvent{
		Provider:        models.PaymentProviderPayPal,
		ProviderEventID: providerEventID(ev.ID, raw),
		PurchaserEmail:  email,
		AmountCents:     AmountToCents(sale.Amount.Total),
		Currency:        NormalizeCurrency(sale.Amount.Currency),
		Status:          models.PurchaseStatusChargeback,
		ProviderOrderID: sale.ID,
		RawPayloadJSON:  string(raw),
		ProcessedAt:     s.now().UTC(),
	}
	created, _, err := s.repo.CreatePurchaseEventIfNotExists(event)
	if err != nil {
		return nil, fmt.Errorf("record chargeback event: %w", err)
	}
	if !created {
		return &Result{Duplicate: true, EventStatus: models.PurchaseStatusChargeback}, nil
	}

	updated, err := s.repo.UpdateUserEntitlementStatusByOrder(
		models.PaymentProviderPayPal, sale.ID, models.EntitlementStatusChargeback)
	if err != nil {
		s.log.Error("failed to mark entitlements charged back",
			zap.String("sale_id", sale.ID), zap.Error(err))
	}

	return &Result{Handled: true, EventStatus: models.PurchaseStatusChargeback, Entitlements: int(updated)}, nil
}

// providerEventID keeps the (provider, provider_event_id) uniqueness usable
// even when the envelope carries no id, by hashing the payload instead.
func providerEventID(id string, raw []byte) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	sum := sha256.Sum256(raw)
	return "hash:" + hex.EncodeToString(sum[:])
}

// applyEntitlement grants access for one mapped SKU: an upserted
// UserEntitlement when the purchaser already has an account, otherwise an
// upserted PendingEntitlement staged for signup.
func (s *Service) applyEntitlement(grant EntitlementGrant) error {
	user, err := s.repo.GetUserByEmail(grant.PurchaserEmail)
	switch {
	case err == nil:
		return s.repo.UpsertUserEntitlement(&models.UserEntitlement{
			UserID:         user.ID,
			ProductSKU:     grant.ProductSKU,
			SourceProvider: grant.Provider,
			SourceOrderID:  grant.OrderID,
			Status:         grant.Status,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		status := models.PendingStatusCancelled
		if grant.Status == models.EntitlementStatusActive {
			status = models.PendingStatusPending
		}
		return s.repo.UpsertPendingEntitlement(&models.PendingEntitlement{
			PurchaserEmail:  grant.PurchaserEmail,
			ProductSKU:      grant.ProductSKU,
			SourceProvider:  grant.Provider,
			SourceOrderID:   grant.OrderID,
			PurchaseEventID: grant.PurchaseEventID,
			Status:          status,
		})
	default:
		return fmt.Errorf("user lookup: %w", err)
	}
}

// lookupMapping resolves a provider SKU through the Redis cache when enabled,
// falling back to the database. Cache failures are silent; mappings are
// administrative data that change rarely.
func (s *Service) lookupMapping(provider, providerProductID string) (*models.ProductMapping, error) {
	key := fmt.Sprintf("product_mapping:%s:%s", provider, providerProductID)
	if s.useCache {
		if cached, err := cache.Get(key); err == nil && cached != "" {
			var m models.ProductMapping
			if json.Unmarshal([]byte(cached), &m) == nil {
				return &m, nil
			}
		}
	}

	m, err := s.repo.FindActiveProductMapping(provider, providerProductID)
	if err != nil {
		return nil, err
	}
	if s.useCache {
		if buf, err := json.Marshal(m); err == nil {
			_ = cache.Set(key, buf, mappingCacheTTL)
		}
	}
	return m, nil
}
