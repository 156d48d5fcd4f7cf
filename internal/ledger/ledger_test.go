package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvending/vending/internal/domain"
)

func item(token, sku string, kind domain.SkuType) domain.PurchaseItem {
	return domain.PurchaseItem{
		Kind:          kind,
		SKU:           sku,
		PackageName:   "com.example.game",
		PurchaseToken: token,
		Data:          `{"purchaseToken":"` + token + `"}`,
		Signature:     "sig",
	}
}

func TestLedgerSeparatesAccountsAndPackages(t *testing.T) {
	l := New()

	l.For("acc-1", "com.example.game").Add(item("tok-1", "gems.100", domain.SkuTypeInApp))

	assert.Equal(t, 1, l.For("acc-1", "com.example.game").Len())
	assert.Equal(t, 0, l.For("acc-2", "com.example.game").Len())
	assert.Equal(t, 0, l.For("acc-1", "com.example.other").Len())
}

func TestPurchaseListAddIsIdempotent(t *testing.T) {
	list := New().For("acc-1", "com.example.game")

	first := item("tok-1", "gems.100", domain.SkuTypeInApp)
	replay := item("tok-1", "gems.200", domain.SkuTypeInApp)
	list.Add(first)
	list.Add(replay)

	require.Equal(t, 1, list.Len())
	got := list.QueryByKind(domain.SkuTypeInApp)
	require.Len(t, got, 1)
	assert.Equal(t, "gems.100", got[0].SKU)
}

func TestPurchaseListRejectsInvalidItem(t *testing.T) {
	list := New().For("acc-1", "com.example.game")

	list.Add(domain.PurchaseItem{SKU: "gems.100"})

	assert.Equal(t, 0, list.Len())
}

func TestPurchaseListUpdateReplacesExistingOnly(t *testing.T) {
	list := New().For("acc-1", "com.example.game")

	list.Add(item("tok-1", "gems.100", domain.SkuTypeInApp))
	list.Update(item("tok-1", "gems.100.ack", domain.SkuTypeInApp))
	list.Update(item("tok-missing", "gems.999", domain.SkuTypeInApp))

	require.Equal(t, 1, list.Len())
	got := list.QueryByKind(domain.SkuTypeInApp)
	require.Len(t, got, 1)
	assert.Equal(t, "gems.100.ack", got[0].SKU)
}

func TestPurchaseListRemove(t *testing.T) {
	list := New().For("acc-1", "com.example.game")

	list.Add(item("tok-1", "gems.100", domain.SkuTypeInApp))
	list.Add(item("tok-2", "gems.200", domain.SkuTypeInApp))
	list.Remove("tok-1")
	list.Remove("tok-unknown")

	require.Equal(t, 1, list.Len())
	got := list.QueryByKind(domain.SkuTypeInApp)
	require.Len(t, got, 1)
	assert.Equal(t, "tok-2", got[0].PurchaseToken)
}

func TestPurchaseListQueryByKindKeepsInsertionOrder(t *testing.T) {
	list := New().For("acc-1", "com.example.game")

	list.Add(item("tok-1", "gems.100", domain.SkuTypeInApp))
	list.Add(item("tok-2", "gold.monthly", domain.SkuTypeSubs))
	list.Add(item("tok-3", "gems.200", domain.SkuTypeInApp))

	inapp := list.QueryByKind(domain.SkuTypeInApp)
	require.Len(t, inapp, 2)
	assert.Equal(t, "tok-1", inapp[0].PurchaseToken)
	assert.Equal(t, "tok-3", inapp[1].PurchaseToken)

	subs := list.QueryByKind(domain.SkuTypeSubs)
	require.Len(t, subs, 1)
	assert.Equal(t, "tok-2", subs[0].PurchaseToken)
}
