package uigraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }

func codeBundle(code int64) *protocol.ResponseBundle {
	return &protocol.ResponseBundle{
		Items: []protocol.BundleItem{{Key: domain.KeyResponseCode, I: i64(code)}},
	}
}

func TestFlattenActionUnwrapsNestedChain(t *testing.T) {
	wire := &protocol.WireAction{
		ActionContext: []byte{0x01},
		Navigate: &protocol.NavigateAction{
			From: "cartScreen",
			Action: &protocol.WireAction{
				ViewClick: &protocol.ViewClickAction{
					UIInfo: &protocol.UIInfo{UIType: string(domain.UITypePurchaseCartBuyButton)},
					Action: &protocol.WireAction{
						ActionContext: []byte{0x02, 0x03},
						Ext: &protocol.ExtAction{
							Challenge: map[string]string{"ctoken": "abc"},
							Action: &protocol.WireAction{
								Show: &protocol.ShowAction{
									ScreenID: "spinner",
									Action: &protocol.WireAction{
										ActionContext: []byte{0x04},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	action := FlattenAction(wire)

	assert.Equal(t, domain.ActionShow, action.Kind)
	assert.Equal(t, "spinner", action.ScreenID)
	assert.Equal(t, "cartScreen", action.SrcScreenID)
	assert.Equal(t, domain.UITypePurchaseCartBuyButton, action.UIType)
	assert.Equal(t, map[string]string{"ctoken": "abc"}, action.Challenge)
	assert.Equal(t, [][]byte{{0x01}, {0x02, 0x03}, {0x04}}, action.Context)
}

func TestFlattenActionTimer(t *testing.T) {
	wire := &protocol.WireAction{
		Timer: &protocol.TimerAction{
			DelayMillis:    1500,
			ResponseBundle: codeBundle(int64(domain.ResultOK)),
		},
	}

	action := FlattenAction(wire)

	assert.Equal(t, domain.ActionDelay, action.Kind)
	assert.Equal(t, 1500, action.DelayMillis)
	require.NotNil(t, action.DelayResult)
	code, ok := action.DelayResult.Code()
	require.True(t, ok)
	assert.Equal(t, domain.ResultOK, code)
}

func TestFlattenActionFirstUITypeWins(t *testing.T) {
	wire := &protocol.WireAction{
		ViewClick: &protocol.ViewClickAction{
			UIInfo: &protocol.UIInfo{UIType: string(domain.UITypePurchaseCartContinueButton)},
			Action: &protocol.WireAction{
				ViewClick: &protocol.ViewClickAction{
					UIInfo: &protocol.UIInfo{UIType: string(domain.UITypePurchaseCartBuyButton)},
					Action: &protocol.WireAction{
						Show: &protocol.ShowAction{ScreenID: "s1"},
					},
				},
			},
		},
	}

	action := FlattenAction(wire)

	assert.Equal(t, domain.UITypePurchaseCartContinueButton, action.UIType)
}

func TestFlattenActionLaterChallengeOverwrites(t *testing.T) {
	wire := &protocol.WireAction{
		Ext: &protocol.ExtAction{
			Challenge: map[string]string{"round": "1"},
			Action: &protocol.WireAction{
				Ext: &protocol.ExtAction{
					Challenge: map[string]string{"round": "2"},
					Action: &protocol.WireAction{
						Show: &protocol.ShowAction{ScreenID: "s1"},
					},
				},
			},
		},
	}

	action := FlattenAction(wire)

	assert.Equal(t, map[string]string{"round": "2"}, action.Challenge)
}

func TestFlattenActionClassTypeOneIsUnknown(t *testing.T) {
	wire := &protocol.WireAction{
		ViewClick: &protocol.ViewClickAction{
			UIInfo: &protocol.UIInfo{ClassType: 1, UIType: string(domain.UITypePurchaseCartBuyButton)},
			Action: &protocol.WireAction{
				Show: &protocol.ShowAction{ScreenID: "s1"},
			},
		},
	}

	action := FlattenAction(wire)

	assert.Equal(t, domain.UITypeUnknown, action.UIType)
}

func TestParseAcquireResponseWithoutOutcome(t *testing.T) {
	result := ParseAcquireResponse(&protocol.AcquireResponse{}, FlowContext{})

	require.NotNil(t, result.Result)
	code, ok := result.Result.Code()
	require.True(t, ok)
	assert.Equal(t, domain.ResultOK, code)
	assert.Empty(t, result.PurchaseItems)
}

func TestParseAcquireResponseDirectPurchase(t *testing.T) {
	data := `{"packageName":"com.example.game","purchaseToken":"tok-1","purchaseState":0}`
	resp := &protocol.AcquireResponse{
		Outcome: &protocol.AcquireOutcome{
			Purchase: &protocol.PurchaseResponse{
				ResponseBundle: &protocol.ResponseBundle{
					Items: []protocol.BundleItem{
						{Key: domain.KeyResponseCode, I: i64(0)},
						{Key: domain.KeyPurchaseData, S: str(data)},
						{Key: domain.KeyDataSignature, S: str("sig-1")},
					},
				},
			},
		},
	}

	result := ParseAcquireResponse(resp, FlowContext{SkuType: domain.SkuTypeInApp, SKU: "gems.100"})

	require.Len(t, result.PurchaseItems, 1)
	item := result.PurchaseItems[0]
	assert.Equal(t, domain.SkuTypeInApp, item.Kind)
	assert.Equal(t, "gems.100", item.SKU)
	assert.Equal(t, "com.example.game", item.PackageName)
	assert.Equal(t, "tok-1", item.PurchaseToken)
	assert.Equal(t, 0, item.PurchaseState)
	assert.Equal(t, data, item.Data)
	assert.Equal(t, "sig-1", item.Signature)
}

func TestParseAcquireResponsePurchaseMissingFieldYieldsNoItem(t *testing.T) {
	data := `{"packageName":"com.example.game","purchaseState":0}`
	resp := &protocol.AcquireResponse{
		Outcome: &protocol.AcquireOutcome{
			Purchase: &protocol.PurchaseResponse{
				ResponseBundle: &protocol.ResponseBundle{
					Items: []protocol.BundleItem{
						{Key: domain.KeyResponseCode, I: i64(0)},
						{Key: domain.KeyPurchaseData, S: str(data)},
						{Key: domain.KeyDataSignature, S: str("sig-1")},
					},
				},
			},
		},
	}

	result := ParseAcquireResponse(resp, FlowContext{SkuType: domain.SkuTypeInApp, SKU: "gems.100"})

	assert.Empty(t, result.PurchaseItems)
	code, ok := result.Result.Code()
	require.True(t, ok)
	assert.Equal(t, domain.ResultOK, code)
}

func TestParseAcquireResponseNonZeroCodeYieldsNoItem(t *testing.T) {
	resp := &protocol.AcquireResponse{
		Outcome: &protocol.AcquireOutcome{
			Purchase: &protocol.PurchaseResponse{
				ResponseBundle: codeBundle(int64(domain.ResultItemAlreadyOwned)),
			},
		},
	}

	result := ParseAcquireResponse(resp, FlowContext{SkuType: domain.SkuTypeInApp, SKU: "gems.100"})

	assert.Empty(t, result.PurchaseItems)
	code, ok := result.Result.Code()
	require.True(t, ok)
	assert.Equal(t, domain.ResultItemAlreadyOwned, code)
}

func TestParseAcquireResponseOwnedEntriesSkipBadOnes(t *testing.T) {
	good := `{"packageName":"com.example.game","purchaseToken":"tok-owned","purchaseState":0}`
	resp := &protocol.AcquireResponse{
		Outcome: &protocol.AcquireOutcome{
			OwnedPurchase: &protocol.OwnedPurchase{
				Items: []protocol.OwnedPurchaseEntry{
					{DocID: "malformed"},
					{DocID: "movie:com.example.game:ep1"},
					{DocID: "inapp:com.example.game:gems.50"},
					{
						DocID: "subs:com.example.game:gold.monthly",
						Subs:  &protocol.SignedPurchase{JSONData: good, Signature: "sig-owned"},
					},
				},
			},
		},
	}

	result := ParseAcquireResponse(resp, FlowContext{})

	require.Len(t, result.PurchaseItems, 1)
	item := result.PurchaseItems[0]
	assert.Equal(t, domain.SkuTypeSubs, item.Kind)
	assert.Equal(t, "gold.monthly", item.SKU)
	assert.Equal(t, "tok-owned", item.PurchaseToken)
}

func TestParseAcquireResponseScreens(t *testing.T) {
	resp := &protocol.AcquireResponse{
		ScreenMap: map[string]protocol.WireScreen{
			"cart": {
				UIInfo: &protocol.UIInfo{UIType: string(domain.UITypePurchaseCartBuyButton)},
				Title:  "Confirm purchase",
				Action: &protocol.WireAction{
					Show: &protocol.ShowAction{ScreenID: "next"},
				},
			},
		},
	}

	result := ParseAcquireResponse(resp, FlowContext{})

	screen, ok := result.Screens["cart"]
	require.True(t, ok)
	assert.Equal(t, "cart", screen.ID)
	assert.Equal(t, domain.UITypePurchaseCartBuyButton, screen.UIType)
	assert.Equal(t, "Confirm purchase", screen.Title)
	require.NotNil(t, screen.Action)
	assert.Equal(t, "next", screen.Action.ScreenID)
}
