package protocol

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/openvending/vending/internal/domain"
)

const (
	// Theme is fixed for the sheet UI and participates in the acquire
	// cache key; it never changes across a flow.
	acquireTheme = 2

	nonceSize = 0x100
)

// Session binds the credential triple a protocol client operates with.
type Session struct {
	Auth   domain.AuthContext
	Device domain.DeviceProfile
	Client domain.ClientIdentity
}

// BuyFlowParams are the caller-supplied purchase parameters, held for the
// life of a buy flow.
type BuyFlowParams struct {
	APIVersion          int
	SkuType             domain.SkuType
	SKU                 string
	SkuParams           map[string]string
	SerializedDocIDs    []string
	OfferIDTokens       []string
	OldSkuPurchaseToken string
	OldSkuPurchaseID    string
	NeedAuth            bool
}

// SkuDetailsParams parameterize one sku-details lookup.
type SkuDetailsParams struct {
	APIVersion int
	SkuType    domain.SkuType
	SkuPackage string
	SkuIDs     []string
	SDKVersion int
	Extras     map[string]string
}

func NewSkuDetailsRequest(s Session, p SkuDetailsParams) *SkuDetailsRequest {
	ids := make([]string, len(p.SkuIDs))
	copy(ids, p.SkuIDs)
	sort.Strings(ids)

	return &SkuDetailsRequest{
		Version:     schemaVersion,
		APIVersion:  p.APIVersion,
		SkuType:     string(p.SkuType),
		PackageName: s.Client.PackageName,
		IsWiFi:      true,
		SkuPackage:  p.SkuPackage,
		SkuIDs:      ids,
		SDKVersion:  p.SDKVersion,
		MultiOffer:  p.Extras,
	}
}

// NewAcquireRequest builds the first request of a buy flow. Every later
// round trip must go through ContinueAcquireRequest instead.
func NewAcquireRequest(s Session, p BuyFlowParams, now time.Time) (*AcquireRequest, error) {
	docID, err := resolveDocID(s, p)
	if err != nil {
		return nil, err
	}

	authFrequency := 3
	if p.NeedAuth {
		authFrequency = 0
	}

	offerIDToken := ""
	if len(p.OfferIDTokens) > 0 {
		offerIDToken = p.OfferIDTokens[0]
	}

	extras := map[string]string{
		"enablePendingPurchases": orDefault(p.SkuParams["enablePendingPurchases"], "false"),
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}

	return &AcquireRequest{
		Version: schemaVersion,
		DocumentInfo: DocumentInfo{
			DocID:        docID,
			OfferIDToken: offerIDToken,
		},
		ClientInfo: ClientInfo{
			APIVersion:          p.APIVersion,
			PackageName:         s.Client.PackageName,
			VersionCode:         s.Client.VersionCode,
			SignatureHash:       s.Client.CertHashSHA,
			SkuParams:           p.SkuParams,
			InstallerPackage:    s.Device.Product,
			OldSkuPurchaseToken: p.OldSkuPurchaseToken,
			OldSkuPurchaseID:    p.OldSkuPurchaseID,
		},
		ClientTokenB64: clientToken(s.Device, s.Auth),
		DeviceAuthInfo: DeviceAuthInfo{
			CanAuthenticate: true,
			AuthFrequency:   authFrequency,
		},
		DeviceIDB64: s.Auth.DeviceIDHex,
		CacheKey:    acquireCacheKey(s, docID, offerIDToken, extras, authFrequency),
		Nonce:       nonce,
		Theme:       acquireTheme,
		Timestamp:   timestampAt(now),
	}, nil
}

// ContinueAcquireRequest derives the next round trip's request from the
// prior one. The previous request is copied, then exactly five things are
// patched: the server context token, appended action-context blobs, the
// challenge payload, the "rpt" auth token and the timestamp. Recomputing
// any other field is a protocol violation; the server correlates rounds
// by the untouched remainder.
func ContinueAcquireRequest(prev *AcquireRequest, resp *AcquireResponse, actionContext [][]byte, challengeToken, authToken string, now time.Time) *AcquireRequest {
	next := prev.Clone()
	next.ServerContextToken = resp.ServerContextToken
	next.ActionContext = append(next.ActionContext, actionContext...)
	if challengeToken != "" {
		next.DeviceAuthInfo.ChallengePayload = challengeToken
	}
	if authToken != "" {
		if next.AuthTokens == nil {
			next.AuthTokens = make(map[string]string, 1)
		}
		next.AuthTokens["rpt"] = authToken
	}
	next.Timestamp = timestampAt(now)
	return next
}

func resolveDocID(s Session, p BuyFlowParams) (DocID, error) {
	if len(p.SerializedDocIDs) > 0 && p.SerializedDocIDs[0] != "" {
		raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(p.SerializedDocIDs[0])
		if err != nil {
			return DocID{}, fmt.Errorf("decode serialized document id: %w", err)
		}
		var docID DocID
		if err := json.Unmarshal(raw, &docID); err != nil {
			return DocID{}, fmt.Errorf("parse serialized document id: %w", err)
		}
		return docID, nil
	}

	if !p.SkuType.Supported() {
		return DocID{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedSkuType, p.SkuType)
	}

	skuPackage := p.SkuParams["skuPackageName"]
	if skuPackage == "" {
		skuPackage = s.Client.PackageName
	}

	return DocID{
		BackendDocID: domain.ComposeDocumentID(p.SkuType, skuPackage, p.SKU).String(),
		Type:         p.SkuType.BackendDocType(),
		Backend:      3,
	}, nil
}

// acquireCacheKey builds the server-correlated key string. Field order and
// presence are fixed; the server compares this byte-for-byte across
// rounds.
func acquireCacheKey(s Session, docID DocID, offerIDToken string, extras map[string]string, authFrequency int) string {
	doc := struct {
		DocID        DocID  `json:"docid"`
		OfferIDToken string `json:"offerIdToken,omitempty"`
	}{docID, offerIDToken}
	encodedDoc, _ := json.Marshal(doc)

	key := s.Auth.AccountID
	key += "#" + base64.StdEncoding.EncodeToString(encodedDoc)
	key += "#simId=" + s.Auth.DeviceIDHex
	key += "#clientTheme=2"
	key += "#fingerprintValid=false"
	key += "#desiredAuthMethod=0"
	key += fmt.Sprintf("#authFrequency=%d", authFrequency)
	key += "#userHasFop=false"
	key += "#callingAppPackageName=" + s.Client.PackageName

	extraKeys := make([]string, 0, len(extras))
	for k := range extras {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		key += "#" + k + "=" + extras[k]
	}
	return key
}

func clientToken(device domain.DeviceProfile, auth domain.AuthContext) string {
	token := struct {
		Locale       string `json:"locale"`
		GSFVersion   int    `json:"gsfVersion"`
		Device       string `json:"device"`
		Product      string `json:"product"`
		Model        string `json:"model"`
		Manufacturer string `json:"manufacturer"`
		Fingerprint  string `json:"fingerprint"`
		SDKVersion   int    `json:"sdkVersion"`
		TimeZone     string `json:"timeZone"`
		GSFID        string `json:"gsfId"`
	}{
		Locale:       device.Locale,
		GSFVersion:   device.GSFVersionCode,
		Device:       device.Build,
		Product:      device.Product,
		Model:        device.Model,
		Manufacturer: device.Manufacturer,
		Fingerprint:  device.Fingerprint,
		SDKVersion:   device.SDKVersion,
		TimeZone:     device.TimeZone,
		GSFID:        auth.DeviceIDHex,
	}
	encoded, _ := json.Marshal(token)
	return base64.StdEncoding.EncodeToString(encoded)
}

func newNonce() (string, error) {
	buf := make([]byte, nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return "nonce=" + base64.URLEncoding.EncodeToString(buf), nil
}

func timestampAt(now time.Time) Timestamp {
	millis := now.UnixMilli()
	return Timestamp{
		Seconds: millis / 1000,
		Nanos:   int((millis + time.Hour.Milliseconds()) % 1000 * 1_000_000),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
