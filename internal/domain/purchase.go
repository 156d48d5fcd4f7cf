package domain

// PurchaseItem is one owned purchase. Identity is the purchase token
// alone; two items with the same token are the same purchase.
type PurchaseItem struct {
	Kind          SkuType
	SKU           string
	PackageName   string
	PurchaseToken string
	PurchaseState int
	Data          string
	Signature     string
}

func (p PurchaseItem) Valid() bool {
	return p.PurchaseToken != ""
}
