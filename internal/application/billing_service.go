package application

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ledger"
	"github.com/openvending/vending/internal/protocol"
)

// BillingService validates caller input and runs the read-side protocol
// operations. All network work goes through a cached protocol session.
type BillingService struct {
	sessions *SessionSource
	ledger   *ledger.Ledger
	log      *logrus.Entry
}

func NewBillingService(sessions *SessionSource, purchases *ledger.Ledger) *BillingService {
	return &BillingService{
		sessions: sessions,
		ledger:   purchases,
		log:      logrus.WithField("component", "billing"),
	}
}

// IsBillingSupported answers purely from validation; no network call.
func (s *BillingService) IsBillingSupported(apiVersion int, skuType domain.SkuType, pkgName string, extras map[string]string) *domain.ResultBundle {
	if pkgName == "" {
		return domain.NewResultBundleWithMessage(domain.ResultDeveloperError, domain.ErrMissingPackageName.Error())
	}
	if apiVersion < domain.MinAPIVersion || apiVersion > domain.MaxAPIVersion {
		return domain.NewResultBundleWithMessage(domain.ResultDeveloperError, domain.ErrUnsupportedAPI.Error())
	}
	if len(extras) > 0 && apiVersion < domain.ExtraParamsMinAPIVersion {
		return domain.NewResultBundleWithMessage(domain.ResultDeveloperError, "extra params require a newer billing api version")
	}
	if !skuType.Supported() {
		return domain.NewResultBundleWithMessage(domain.ResultDeveloperError, domain.ErrUnsupportedSkuType.Error())
	}
	if extras["vr"] == "true" && skuType == domain.SkuTypeSubs {
		return domain.NewResultBundleWithMessage(domain.ResultBillingUnavailable, "subscriptions are not supported in vr mode")
	}
	return domain.NewResultBundle(domain.ResultOK)
}

type SkuDetailsCall struct {
	Account     string
	PackageName string
	Params      protocol.SkuDetailsParams
}

func (c SkuDetailsCall) validate() error {
	if c.Account == "" {
		return domain.ErrMissingAccount
	}
	if c.PackageName == "" {
		return domain.ErrMissingPackageName
	}
	if c.Params.APIVersion < domain.MinAPIVersion || c.Params.APIVersion > domain.MaxAPIVersion {
		return fmt.Errorf("%w: %d", domain.ErrUnsupportedAPI, c.Params.APIVersion)
	}
	if !c.Params.SkuType.Supported() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedSkuType, c.Params.SkuType)
	}
	if len(c.Params.SkuIDs) == 0 {
		return domain.ErrMissingSku
	}
	return nil
}

func (s *BillingService) GetSkuDetails(ctx context.Context, call SkuDetailsCall) ([]protocol.SkuDetail, error) {
	if err := call.validate(); err != nil {
		return nil, err
	}
	client, err := s.sessions.Client(ctx, call.PackageName, call.Account)
	if err != nil {
		return nil, err
	}
	response, err := client.GetSkuDetails(ctx, call.Params)
	if err != nil {
		return nil, err
	}
	return response.Details, nil
}

type PurchaseTokenCall struct {
	Account       string
	PackageName   string
	PurchaseToken string
	Extras        map[string]string
}

func (c PurchaseTokenCall) validate() error {
	if c.Account == "" {
		return domain.ErrMissingAccount
	}
	if c.PackageName == "" {
		return domain.ErrMissingPackageName
	}
	if c.PurchaseToken == "" {
		return domain.ErrMissingPurchaseToken
	}
	return nil
}

// ConsumePurchase forwards the consume call and drops the token from the
// ledger when the backend accepts it.
func (s *BillingService) ConsumePurchase(ctx context.Context, call PurchaseTokenCall) (*domain.ResultBundle, error) {
	if err := call.validate(); err != nil {
		return nil, err
	}
	client, err := s.sessions.Client(ctx, call.PackageName, call.Account)
	if err != nil {
		return nil, err
	}
	result, err := client.ConsumePurchase(ctx, call.PurchaseToken, call.Extras)
	if err != nil {
		return nil, err
	}
	if code, ok := result.Code(); ok && code == domain.ResultOK {
		s.ledger.For(call.Account, call.PackageName).Remove(call.PurchaseToken)
	}
	return result, nil
}

func (s *BillingService) AcknowledgePurchase(ctx context.Context, call PurchaseTokenCall) (*domain.ResultBundle, error) {
	if err := call.validate(); err != nil {
		return nil, err
	}
	client, err := s.sessions.Client(ctx, call.PackageName, call.Account)
	if err != nil {
		return nil, err
	}
	result, err := client.AcknowledgePurchase(ctx, call.PurchaseToken, call.Extras["developerPayload"])
	if err != nil {
		return nil, err
	}
	if code, ok := result.Code(); ok && code == domain.ResultOK {
		if data := result.GetString(domain.KeyPurchaseData); data != "" {
			list := s.ledger.For(call.Account, call.PackageName)
			list.Update(domain.PurchaseItem{
				PurchaseToken: call.PurchaseToken,
				Data:          data,
				Signature:     result.GetString(domain.KeyDataSignature),
			})
		}
	}
	return result, nil
}

type PurchaseHistoryCall struct {
	Account     string
	PackageName string
	Params      protocol.PurchaseHistoryParams
}

func (s *BillingService) GetPurchaseHistory(ctx context.Context, call PurchaseHistoryCall) (*protocol.PurchaseHistory, error) {
	if call.Account == "" {
		return nil, domain.ErrMissingAccount
	}
	if call.PackageName == "" {
		return nil, domain.ErrMissingPackageName
	}
	if call.Params.APIVersion < domain.MinAPIVersion || call.Params.APIVersion > domain.MaxAPIVersion {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedAPI, call.Params.APIVersion)
	}
	if !call.Params.SkuType.Supported() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSkuType, call.Params.SkuType)
	}

	client, err := s.sessions.Client(ctx, call.PackageName, call.Account)
	if err != nil {
		return nil, err
	}
	return client.GetPurchaseHistory(ctx, call.Params)
}

// GetPurchases answers from the ledger alone, in the list-keyed bundle
// layout callers of the RPC surface expect.
func (s *BillingService) GetPurchases(account, pkgName string, skuType domain.SkuType) (*domain.ResultBundle, error) {
	if account == "" {
		return nil, domain.ErrMissingAccount
	}
	if pkgName == "" {
		return nil, domain.ErrMissingPackageName
	}
	if !skuType.Supported() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSkuType, skuType)
	}

	items := s.ledger.For(account, pkgName).QueryByKind(skuType)
	skus := make([]string, 0, len(items))
	data := make([]string, 0, len(items))
	signatures := make([]string, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
		data = append(data, item.Data)
		signatures = append(signatures, item.Signature)
	}

	result := domain.NewResultBundle(domain.ResultOK)
	result.Put(domain.KeyPurchaseItemList, skus)
	result.Put(domain.KeyPurchaseDataList, data)
	result.Put(domain.KeyDataSignatureList, signatures)
	s.log.WithFields(logrus.Fields{
		"package": pkgName,
		"type":    string(skuType),
		"count":   strconv.Itoa(len(items)),
	}).Debug("purchases served from ledger")
	return result, nil
}
