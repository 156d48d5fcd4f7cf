package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ports"
)

// Endpoints holds the backend URLs a client talks to.
type Endpoints struct {
	SkuDetails      string
	Acquire         string
	Consume         string
	Acknowledge     string
	PurchaseHistory string
	AuthProof       string
}

// ResponseCache is the read-side cache for idempotent calls, keyed by the
// exact serialized request bytes.
type ResponseCache interface {
	Get(request []byte) ([]byte, bool)
	Put(request, response []byte)
}

// Client executes the protocol operations for one credential session.
type Client struct {
	session   Session
	transport ports.Transport
	skuCache  ResponseCache
	endpoints Endpoints
	clock     ports.Clock
	log       *logrus.Entry
}

func NewClient(session Session, transport ports.Transport, skuCache ResponseCache, endpoints Endpoints, clock ports.Clock) *Client {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Client{
		session:   session,
		transport: transport,
		skuCache:  skuCache,
		endpoints: endpoints,
		clock:     clock,
		log:       logrus.WithField("component", "protocol"),
	}
}

func (c *Client) Session() Session { return c.session }

// GetSkuDetails serves identical requests from the response cache; the
// transport is only hit on a miss, and only successful responses are
// stored.
func (c *Client) GetSkuDetails(ctx context.Context, p SkuDetailsParams) (*SkuDetailsResponse, error) {
	request := NewSkuDetailsRequest(c.session, p)
	body, err := EncodeMessage(request)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.skuCache.Get(body); ok {
		c.log.WithField("skus", len(p.SkuIDs)).Debug("sku details served from cache")
		return decodeSkuDetails(cached)
	}

	raw, err := c.post(ctx, "sku details", c.endpoints.SkuDetails, c.protoHeaders(), body)
	if err != nil {
		return nil, err
	}
	response, err := decodeSkuDetails(raw)
	if err != nil {
		return nil, err
	}
	c.skuCache.Put(body, raw)
	return response, nil
}

func decodeSkuDetails(raw []byte) (*SkuDetailsResponse, error) {
	wrapper, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if wrapper.Payload == nil || wrapper.Payload.SkuDetails == nil {
		return nil, &domain.ProtocolError{Op: "sku details", Reason: "response payload missing"}
	}
	return wrapper.Payload.SkuDetails, nil
}

// Acquire posts one negotiation round trip. Build the request with
// NewAcquireRequest or ContinueAcquireRequest.
func (c *Client) Acquire(ctx context.Context, request *AcquireRequest) (*AcquireResponse, error) {
	body, err := EncodeMessage(request)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s?theme=%d", c.endpoints.Acquire, request.Theme)
	raw, err := c.post(ctx, "acquire", endpoint, c.protoHeaders(), body)
	if err != nil {
		return nil, err
	}
	wrapper, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if wrapper.Payload == nil || wrapper.Payload.Acquire == nil {
		return nil, &domain.ProtocolError{Op: "acquire", Reason: "response payload missing"}
	}
	return wrapper.Payload.Acquire, nil
}

func (c *Client) ConsumePurchase(ctx context.Context, purchaseToken string, extras map[string]string) (*domain.ResultBundle, error) {
	form := url.Values{}
	form.Set("pt", purchaseToken)
	form.Set("ot", "1")
	form.Set("shpn", c.session.Client.PackageName)
	form.Set("iabx", encodeExtras(extras))

	headers := c.protoHeaders()
	headers["Content-Type"] = "application/x-www-form-urlencoded; charset=UTF-8"

	raw, err := c.post(ctx, "consume purchase", c.endpoints.Consume, headers, []byte(form.Encode()))
	if err != nil {
		return nil, err
	}
	wrapper, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if wrapper.Payload == nil || wrapper.Payload.Consume == nil {
		return nil, &domain.ProtocolError{Op: "consume purchase", Reason: "response payload missing"}
	}
	return BundleToResult(wrapper.Payload.Consume.ResponseBundle), nil
}

func (c *Client) AcknowledgePurchase(ctx context.Context, purchaseToken, developerPayload string) (*domain.ResultBundle, error) {
	body, err := EncodeMessage(&AcknowledgeRequest{
		Version:          schemaVersion,
		PurchaseToken:    purchaseToken,
		DeveloperPayload: developerPayload,
	})
	if err != nil {
		return nil, err
	}
	raw, err := c.post(ctx, "acknowledge purchase", c.endpoints.Acknowledge, c.protoHeaders(), body)
	if err != nil {
		return nil, err
	}
	wrapper, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if wrapper.Payload == nil || wrapper.Payload.Acknowledge == nil {
		return nil, &domain.ProtocolError{Op: "acknowledge purchase", Reason: "response payload missing"}
	}
	return BundleToResult(wrapper.Payload.Acknowledge.ResponseBundle), nil
}

// HistoryItem is one zipped purchase-history record.
type HistoryItem struct {
	SKU       string
	Data      string
	Signature string
}

type PurchaseHistory struct {
	Code              int
	Items             []HistoryItem
	ContinuationToken string
}

type PurchaseHistoryParams struct {
	APIVersion        int
	SkuType           domain.SkuType
	ContinuationToken string
	Extras            map[string]string
}

// GetPurchaseHistory zips the response's parallel arrays; a length
// mismatch is a protocol violation, never a truncated list.
func (c *Client) GetPurchaseHistory(ctx context.Context, p PurchaseHistoryParams) (*PurchaseHistory, error) {
	query := url.Values{}
	query.Set("bav", fmt.Sprintf("%d", p.APIVersion))
	query.Set("shpn", c.session.Client.PackageName)
	query.Set("iabt", string(p.SkuType))
	if p.ContinuationToken != "" {
		query.Set("ctntkn", p.ContinuationToken)
	}
	if len(p.Extras) > 0 {
		query.Set("iabx", encodeExtras(p.Extras))
	}

	endpoint := c.endpoints.PurchaseHistory + "?" + query.Encode()
	raw, err := c.get(ctx, "purchase history", endpoint, c.protoHeaders())
	if err != nil {
		return nil, err
	}
	wrapper, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if wrapper.Payload == nil || wrapper.Payload.PurchaseHistory == nil {
		return nil, &domain.ProtocolError{Op: "purchase history", Reason: "response payload missing"}
	}

	history := wrapper.Payload.PurchaseHistory
	if len(history.Products) != len(history.PurchaseJSONs) || len(history.Products) != len(history.Signatures) {
		return nil, &domain.ProtocolError{
			Op: "purchase history",
			Reason: fmt.Sprintf("parallel array length mismatch: %d products, %d purchases, %d signatures",
				len(history.Products), len(history.PurchaseJSONs), len(history.Signatures)),
		}
	}

	items := make([]HistoryItem, 0, len(history.Products))
	for i := range history.Products {
		items = append(items, HistoryItem{
			SKU:       history.Products[i],
			Data:      history.PurchaseJSONs[i],
			Signature: history.Signatures[i],
		})
	}
	return &PurchaseHistory{
		Code:              history.Code,
		Items:             items,
		ContinuationToken: history.ContinuationToken,
	}, nil
}

// RequestAuthProof exchanges the account password for a proof token used
// as the "rpt" auth token on the next acquire round.
func (c *Client) RequestAuthProof(ctx context.Context, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"credentialType": "password",
		"credential":     password,
	})
	if err != nil {
		return "", fmt.Errorf("encode auth proof request: %w", err)
	}

	headers := c.protoHeaders()
	headers["Content-Type"] = "application/json; charset=utf-8"

	response, err := c.transport.Post(ctx, c.endpoints.AuthProof, headers, payload)
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}
	if response.Status == 400 {
		return "", &domain.AuthError{WrongPassword: true}
	}
	if response.Status < 200 || response.Status >= 300 {
		return "", &domain.AuthError{Err: &domain.TransportError{Op: "auth proof", Status: response.Status}}
	}

	token := gjson.GetBytes(response.Body, "encodedRapt").String()
	if token == "" {
		return "", &domain.AuthError{Err: &domain.ProtocolError{Op: "auth proof", Reason: "encodedRapt missing"}}
	}
	return token, nil
}

func (c *Client) protoHeaders() map[string]string {
	return map[string]string{
		"Content-Type":               "application/x-protobuf",
		"Authorization":              "Bearer " + c.session.Auth.Token,
		"X-DFE-Device-Id":            c.session.Auth.DeviceIDHex,
		"X-DFE-Device-Checkin-Token": c.session.Auth.CheckinToken,
		"Accept-Language":            c.session.Device.Locale,
		"User-Agent":                 fmt.Sprintf("Vending/%d (sdk %d)", c.session.Device.GSFVersionCode, c.session.Device.SDKVersion),
	}
}

func (c *Client) post(ctx context.Context, op, endpoint string, headers map[string]string, body []byte) (raw []byte, err error) {
	defer recoverToTransportError(op, &err)

	start := c.clock.Now()
	response, err := c.transport.Post(ctx, endpoint, headers, body)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	if response.Status < 200 || response.Status >= 300 {
		return nil, &domain.TransportError{Op: op, Status: response.Status}
	}
	c.log.WithFields(logrus.Fields{
		"op":       op,
		"duration": c.clock.Now().Sub(start).Round(time.Millisecond).String(),
	}).Debug("request completed")
	return response.Body, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, headers map[string]string) (raw []byte, err error) {
	defer recoverToTransportError(op, &err)

	response, err := c.transport.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	if response.Status < 200 || response.Status >= 300 {
		return nil, &domain.TransportError{Op: op, Status: response.Status}
	}
	return response.Body, nil
}

// recoverToTransportError keeps a panicking transport implementation from
// aborting a multi-item operation upstream.
func recoverToTransportError(op string, err *error) {
	if r := recover(); r != nil {
		*err = &domain.TransportError{Op: op, Err: fmt.Errorf("transport panic: %v", r)}
	}
}

func encodeExtras(extras map[string]string) string {
	if len(extras) == 0 {
		extras = map[string]string{}
	}
	encoded, _ := json.Marshal(extras)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(encoded)
}
