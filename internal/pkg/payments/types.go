package payments

// EntitlementGrant is the normalized input for the entitlement application
// step of a completed sale.
type EntitlementGrant struct {
	Provider        string
	OrderID         string
	ProductSKU      string
	PurchaserEmail  string
	Status          string
	PurchaseEventID uint
}

// Result summarizes what a webhook delivery changed, for response logging.
type Result struct {
	Handled      bool
	Duplicate    bool
	EventStatus  string
	Entitlements int
}
