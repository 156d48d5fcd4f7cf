package domain

// Response codes returned to callers. Backend-specific codes are mapped to
// this domain at the RPC boundary.
const (
	ResultOK                 = 0
	ResultUserCanceled       = 1
	ResultServiceUnavailable = 2
	ResultBillingUnavailable = 3
	ResultItemUnavailable    = 4
	ResultDeveloperError     = 5
	ResultError              = 6
	ResultItemAlreadyOwned   = 7
	ResultItemNotOwned       = 8
)

// Well-known result bundle keys.
const (
	KeyResponseCode      = "RESPONSE_CODE"
	KeyDebugMessage      = "DEBUG_MESSAGE"
	KeyPurchaseData      = "INAPP_PURCHASE_DATA"
	KeyDataSignature     = "INAPP_DATA_SIGNATURE"
	KeyPurchaseItemList  = "INAPP_PURCHASE_ITEM_LIST"
	KeyPurchaseDataList  = "INAPP_PURCHASE_DATA_LIST"
	KeyDataSignatureList = "INAPP_DATA_SIGNATURE_LIST"
	KeyContinuationToken = "INAPP_CONTINUATION_TOKEN"
	KeyDetailsList       = "DETAILS_LIST"
	KeyBuyIntent         = "BUY_INTENT"
)

// ResultBundle is an insertion-ordered map of result keys to scalar or
// array values. Every bundle handed to a caller carries a response code.
type ResultBundle struct {
	keys   []string
	values map[string]any
}

func NewResultBundle(code int) *ResultBundle {
	b := &ResultBundle{values: make(map[string]any)}
	b.Put(KeyResponseCode, code)
	return b
}

func NewResultBundleWithMessage(code int, msg string) *ResultBundle {
	b := NewResultBundle(code)
	b.Put(KeyDebugMessage, msg)
	return b
}

func (b *ResultBundle) Put(key string, value any) *ResultBundle {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

func (b *ResultBundle) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *ResultBundle) GetString(key string) string {
	if v, ok := b.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (b *ResultBundle) GetStringSlice(key string) []string {
	if v, ok := b.values[key]; ok {
		if s, ok := v.([]string); ok {
			return s
		}
	}
	return nil
}

// Code returns the bundle's response code. ok is false when no code was
// ever set, which callers must treat as an ambiguous result.
func (b *ResultBundle) Code() (int, bool) {
	v, ok := b.values[KeyResponseCode]
	if !ok {
		return 0, false
	}
	code, ok := v.(int)
	return code, ok
}

func (b *ResultBundle) SetCode(code int) {
	b.Put(KeyResponseCode, code)
}

// Keys returns the bundle keys in insertion order.
func (b *ResultBundle) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

func (b *ResultBundle) Len() int {
	return len(b.keys)
}

func (b *ResultBundle) Clone() *ResultBundle {
	if b == nil {
		return nil
	}
	out := &ResultBundle{
		keys:   make([]string, len(b.keys)),
		values: make(map[string]any, len(b.values)),
	}
	copy(out.keys, b.keys)
	for k, v := range b.values {
		out.values[k] = v
	}
	return out
}

// Map returns a plain map copy for serialization at the RPC boundary.
func (b *ResultBundle) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
