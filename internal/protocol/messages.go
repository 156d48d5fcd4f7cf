// Package protocol implements the wire message schema, request assembly
// and the client for the backend's billing endpoints.
//
// The message layout below is a versioned, engine-private schema; callers
// treat message values as opaque and only the codec in this package reads
// or writes them.
package protocol

import (
	"encoding/json"
	"fmt"
)

const schemaVersion = 2

type DocID struct {
	BackendDocID string `json:"backendDocid"`
	Type         int    `json:"type"`
	Backend      int    `json:"backend"`
}

type DocumentInfo struct {
	DocID        DocID  `json:"docid"`
	OfferIDToken string `json:"offerIdToken,omitempty"`
}

type ClientInfo struct {
	APIVersion          int               `json:"apiVersion"`
	PackageName         string            `json:"package"`
	VersionCode         int               `json:"versionCode"`
	SignatureHash       string            `json:"signatureHash"`
	SkuParams           map[string]string `json:"skuParams,omitempty"`
	InstallerPackage    string            `json:"installerPackage,omitempty"`
	OldSkuPurchaseToken string            `json:"oldSkuPurchaseToken,omitempty"`
	OldSkuPurchaseID    string            `json:"oldSkuPurchaseId,omitempty"`
}

type DeviceAuthInfo struct {
	CanAuthenticate  bool   `json:"canAuthenticate"`
	AuthFrequency    int    `json:"authFrequency"`
	ChallengePayload string `json:"challengePayload,omitempty"`
}

type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int   `json:"nanos"`
}

type SkuDetailsRequest struct {
	Version     int               `json:"version"`
	APIVersion  int               `json:"apiVersion"`
	SkuType     string            `json:"type"`
	PackageName string            `json:"package"`
	IsWiFi      bool              `json:"isWifi"`
	SkuPackage  string            `json:"skuPackage,omitempty"`
	SkuIDs      []string          `json:"skuId"`
	SDKVersion  int               `json:"sdkVersion,omitempty"`
	MultiOffer  map[string]string `json:"multiOfferSkuDetail,omitempty"`
}

type SkuDetail struct {
	SkuType string          `json:"type"`
	SKU     string          `json:"productId"`
	Details json.RawMessage `json:"details"`
}

type SkuDetailsResponse struct {
	Details []SkuDetail     `json:"detailsList"`
	Result  *ResponseBundle `json:"result,omitempty"`
}

// AcquireRequest is the primary negotiation message. Continuations are
// built by Clone plus a small fixed patch set; see assemble.go.
type AcquireRequest struct {
	Version            int               `json:"version"`
	DocumentInfo       DocumentInfo      `json:"documentInfo"`
	ClientInfo         ClientInfo        `json:"clientInfo"`
	ClientTokenB64     string            `json:"clientToken"`
	DeviceAuthInfo     DeviceAuthInfo    `json:"deviceAuthInfo"`
	DeviceIDB64        string            `json:"deviceId"`
	CacheKey           string            `json:"newAcquireCacheKey"`
	Nonce              string            `json:"nonce"`
	Theme              int               `json:"theme"`
	Timestamp          Timestamp         `json:"ts"`
	ServerContextToken string            `json:"serverContextToken,omitempty"`
	ActionContext      [][]byte          `json:"actionContext,omitempty"`
	AuthTokens         map[string]string `json:"authTokens,omitempty"`
}

// Clone deep-copies the request so a continuation can patch its own copy
// without aliasing the original's slices and maps.
func (r *AcquireRequest) Clone() *AcquireRequest {
	out := *r
	if r.ActionContext != nil {
		out.ActionContext = make([][]byte, len(r.ActionContext))
		for i, blob := range r.ActionContext {
			dup := make([]byte, len(blob))
			copy(dup, blob)
			out.ActionContext[i] = dup
		}
	}
	if r.AuthTokens != nil {
		out.AuthTokens = make(map[string]string, len(r.AuthTokens))
		for k, v := range r.AuthTokens {
			out.AuthTokens[k] = v
		}
	}
	if r.ClientInfo.SkuParams != nil {
		out.ClientInfo.SkuParams = make(map[string]string, len(r.ClientInfo.SkuParams))
		for k, v := range r.ClientInfo.SkuParams {
			out.ClientInfo.SkuParams[k] = v
		}
	}
	return &out
}

type UIInfo struct {
	ClassType int    `json:"classType,omitempty"`
	UIType    string `json:"uiType,omitempty"`
}

type TimerAction struct {
	DelayMillis    int             `json:"delay"`
	ResponseBundle *ResponseBundle `json:"responseBundle,omitempty"`
}

type ExtAction struct {
	Challenge map[string]string `json:"challengeMap,omitempty"`
	Action    *WireAction       `json:"action,omitempty"`
}

type ShowAction struct {
	ScreenID string      `json:"screenId"`
	Action   *WireAction `json:"action,omitempty"`
}

type ViewClickAction struct {
	UIInfo *UIInfo     `json:"uiInfo,omitempty"`
	Action *WireAction `json:"action,omitempty"`
}

type OptionalAction struct {
	Action *WireAction `json:"action,omitempty"`
}

type NavigateAction struct {
	From   string      `json:"from"`
	Action *WireAction `json:"action,omitempty"`
}

// WireAction is one wrapper in the server's nested action chain. At most
// one of the wrapper fields is set per level.
type WireAction struct {
	ActionContext []byte           `json:"actionContext,omitempty"`
	Timer         *TimerAction     `json:"timerAction,omitempty"`
	Ext           *ExtAction       `json:"actionExt,omitempty"`
	Show          *ShowAction      `json:"showAction,omitempty"`
	ViewClick     *ViewClickAction `json:"viewClickAction,omitempty"`
	Optional      *OptionalAction  `json:"optionalAction,omitempty"`
	Navigate      *NavigateAction  `json:"navigateToPage,omitempty"`
}

type WireScreen struct {
	UIInfo    *UIInfo         `json:"uiInfo,omitempty"`
	Action    *WireAction     `json:"action,omitempty"`
	Title     string          `json:"title,omitempty"`
	Component json.RawMessage `json:"uiComponents,omitempty"`
}

// BundleItem carries exactly one typed value.
type BundleItem struct {
	Key   string   `json:"key"`
	B     *bool    `json:"bv,omitempty"`
	I     *int64   `json:"i64v,omitempty"`
	S     *string  `json:"sv,omitempty"`
	SList []string `json:"sList,omitempty"`
}

type ResponseBundle struct {
	Items []BundleItem `json:"bundleItem"`
}

type SignedPurchase struct {
	JSONData  string `json:"jsonData"`
	Signature string `json:"signature"`
}

type OwnedPurchaseEntry struct {
	DocID string          `json:"docid"`
	InApp *SignedPurchase `json:"inAppPurchase,omitempty"`
	Subs  *SignedPurchase `json:"subsPurchase,omitempty"`
}

type OwnedPurchase struct {
	Items []OwnedPurchaseEntry `json:"purchaseItem"`
}

type PurchaseResponse struct {
	ResponseBundle *ResponseBundle `json:"responseBundle,omitempty"`
}

type AcquireOutcome struct {
	Purchase      *PurchaseResponse `json:"purchaseResponse,omitempty"`
	OwnedPurchase *OwnedPurchase    `json:"ownedPurchase,omitempty"`
}

type AcquireResponse struct {
	ServerContextToken string                `json:"serverContextToken,omitempty"`
	Action             *WireAction           `json:"action,omitempty"`
	ScreenMap          map[string]WireScreen `json:"screenMap,omitempty"`
	Outcome            *AcquireOutcome       `json:"acquireResult,omitempty"`
}

type ConsumeResponse struct {
	ResponseBundle *ResponseBundle `json:"responseBundle,omitempty"`
}

type AcknowledgeRequest struct {
	Version          int    `json:"version"`
	PurchaseToken    string `json:"purchaseToken"`
	DeveloperPayload string `json:"developerPayload,omitempty"`
}

type AcknowledgeResponse struct {
	ResponseBundle *ResponseBundle `json:"responseBundle,omitempty"`
}

// PurchaseHistoryResponse carries three parallel arrays that must be equal
// length; the client zips them and rejects any mismatch.
type PurchaseHistoryResponse struct {
	Code              int      `json:"responseCode"`
	Products          []string `json:"product"`
	PurchaseJSONs     []string `json:"purchaseJson"`
	Signatures        []string `json:"signature"`
	ContinuationToken string   `json:"continuationToken,omitempty"`
}

// ResponsePayload holds exactly one response kind.
type ResponsePayload struct {
	SkuDetails      *SkuDetailsResponse      `json:"skuDetailsResponse,omitempty"`
	Acquire         *AcquireResponse         `json:"acquireResponse,omitempty"`
	Consume         *ConsumeResponse         `json:"consumePurchaseResponse,omitempty"`
	Acknowledge     *AcknowledgeResponse     `json:"acknowledgePurchaseResponse,omitempty"`
	PurchaseHistory *PurchaseHistoryResponse `json:"purchaseHistoryResponse,omitempty"`
}

type ResponseWrapper struct {
	Payload *ResponsePayload `json:"payload,omitempty"`
}

func EncodeMessage(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

func DecodeResponse(data []byte) (*ResponseWrapper, error) {
	var wrapper ResponseWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &wrapper, nil
}
