// Package uigraph normalizes raw acquire responses into the flat action
// and screen structures the buy flow operates on.
package uigraph

import (
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

var log = logrus.WithField("component", "uigraph")

// FlowContext attributes directly purchased items to the SKU the flow was
// started for; the purchase response itself does not repeat them.
type FlowContext struct {
	SkuType domain.SkuType
	SKU     string
}

// ParseAcquireResponse is a pure function from one raw response to the
// flattened result consumed by the state machine.
func ParseAcquireResponse(resp *protocol.AcquireResponse, flow FlowContext) *domain.AcquireResult {
	action := FlattenAction(resp.Action)

	screens := make(domain.ScreenGraph, len(resp.ScreenMap))
	for id, wireScreen := range resp.ScreenMap {
		screens[id] = parseScreen(id, wireScreen)
	}

	var items []domain.PurchaseItem
	var result *domain.ResultBundle
	if resp.Outcome != nil {
		result, items = parsePurchaseOutcome(resp.Outcome.Purchase, flow)
		if resp.Outcome.OwnedPurchase != nil {
			for _, entry := range resp.Outcome.OwnedPurchase.Items {
				if item, ok := parseOwnedEntry(entry); ok {
					items = append(items, item)
				}
			}
		}
	} else {
		result = domain.NewResultBundle(domain.ResultOK)
	}

	return &domain.AcquireResult{
		Action:        action,
		Screens:       screens,
		PurchaseItems: items,
		Result:        result,
	}
}

// FlattenAction recursively unwraps the wrapper chain into one Action.
// Merge policy: action-context blobs accumulate in encounter order, the
// first uiType wins, later challenge maps overwrite earlier ones.
func FlattenAction(wire *protocol.WireAction) *domain.Action {
	action := &domain.Action{Kind: domain.ActionUnknown}
	flattenInto(wire, action)
	return action
}

func flattenInto(wire *protocol.WireAction, result *domain.Action) bool {
	if wire == nil {
		return false
	}
	if len(wire.ActionContext) > 0 {
		blob := make([]byte, len(wire.ActionContext))
		copy(blob, wire.ActionContext)
		result.Context = append(result.Context, blob)
	}
	if wire.Timer != nil {
		result.Kind = domain.ActionDelay
		result.DelayMillis = wire.Timer.DelayMillis
		result.DelayResult = protocol.BundleToResult(wire.Timer.ResponseBundle)
		return true
	}
	if wire.Ext != nil {
		if len(wire.Ext.Challenge) > 0 {
			result.Challenge = wire.Ext.Challenge
		}
		if wire.Ext.Action != nil {
			return flattenInto(wire.Ext.Action, result)
		}
	}
	if wire.Show != nil {
		result.Kind = domain.ActionShow
		result.ScreenID = wire.Show.ScreenID
		if wire.Show.Action != nil {
			flattenInto(wire.Show.Action, result)
		}
		return true
	}
	if wire.ViewClick != nil {
		if wire.ViewClick.UIInfo != nil && result.UIType == domain.UITypeUnknown {
			result.UIType = parseUIType(wire.ViewClick.UIInfo)
		}
		return flattenInto(wire.ViewClick.Action, result)
	}
	if wire.Optional != nil {
		return flattenInto(wire.Optional.Action, result)
	}
	if wire.Navigate != nil {
		result.SrcScreenID = wire.Navigate.From
		return flattenInto(wire.Navigate.Action, result)
	}
	return false
}

func parseUIType(info *protocol.UIInfo) domain.UIType {
	if info == nil || info.ClassType == 1 {
		return domain.UITypeUnknown
	}
	return domain.UIType(info.UIType)
}

func parseScreen(id string, wire protocol.WireScreen) domain.Screen {
	screen := domain.Screen{
		ID:        id,
		UIType:    parseUIType(wire.UIInfo),
		Title:     wire.Title,
		Component: wire.Component,
	}
	if wire.Action != nil {
		screen.Action = FlattenAction(wire.Action)
	}
	return screen
}

// parsePurchaseOutcome decodes the direct purchase result. A missing
// field keeps the bundle but never yields an item; the parse as a whole
// cannot fail here.
func parsePurchaseOutcome(purchase *protocol.PurchaseResponse, flow FlowContext) (*domain.ResultBundle, []domain.PurchaseItem) {
	if purchase == nil {
		return domain.NewResultBundle(domain.ResultOK), nil
	}
	result := protocol.BundleToResult(purchase.ResponseBundle)

	code, ok := result.Code()
	if !ok || code != domain.ResultOK {
		return result, nil
	}
	data := result.GetString(domain.KeyPurchaseData)
	signature := result.GetString(domain.KeyDataSignature)
	if data == "" || signature == "" {
		return result, nil
	}

	fields := gjson.GetMany(data, "packageName", "purchaseToken", "purchaseState")
	if !fields[0].Exists() || !fields[1].Exists() || !fields[2].Exists() {
		return result, nil
	}

	item := domain.PurchaseItem{
		Kind:          flow.SkuType,
		SKU:           flow.SKU,
		PackageName:   fields[0].String(),
		PurchaseToken: fields[1].String(),
		PurchaseState: int(fields[2].Int()),
		Data:          data,
		Signature:     signature,
	}
	return result, []domain.PurchaseItem{item}
}

// parseOwnedEntry decodes one already-owned purchase. Unrecognized kinds
// and malformed document ids are skipped, never fatal; one bad entry must
// not drop the rest of the list.
func parseOwnedEntry(entry protocol.OwnedPurchaseEntry) (domain.PurchaseItem, bool) {
	docID, err := domain.ParseDocumentID(entry.DocID)
	if err != nil {
		log.WithField("docid", entry.DocID).Debug("skipping owned purchase with malformed document id")
		return domain.PurchaseItem{}, false
	}

	var signed *protocol.SignedPurchase
	switch domain.SkuType(docID.Kind) {
	case domain.SkuTypeInApp:
		signed = entry.InApp
	case domain.SkuTypeSubs:
		signed = entry.Subs
	default:
		log.WithField("kind", docID.Kind).Debug("skipping owned purchase with unrecognized kind")
		return domain.PurchaseItem{}, false
	}
	if signed == nil {
		return domain.PurchaseItem{}, false
	}

	fields := gjson.GetMany(signed.JSONData, "packageName", "purchaseToken", "purchaseState")
	if !fields[0].Exists() || !fields[1].Exists() || !fields[2].Exists() {
		return domain.PurchaseItem{}, false
	}

	return domain.PurchaseItem{
		Kind:          domain.SkuType(docID.Kind),
		SKU:           docID.SKU,
		PackageName:   fields[0].String(),
		PurchaseToken: fields[1].String(),
		PurchaseState: int(fields[2].Int()),
		Data:          signed.JSONData,
		Signature:     signed.Signature,
	}, true
}
