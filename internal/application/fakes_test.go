package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openvending/vending/internal/cache"
	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ledger"
	"github.com/openvending/vending/internal/ports"
	"github.com/openvending/vending/internal/protocol"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAuth struct{}

func (fakeAuth) Obtain(_ context.Context, accountID string) (domain.AuthContext, error) {
	if accountID == "missing" {
		return domain.AuthContext{}, domain.ErrNoAccount
	}
	return domain.AuthContext{
		AccountID:    accountID,
		Token:        "bearer-" + accountID,
		DeviceIDHex:  "3d4f00aa12",
		CheckinToken: "checkin-1",
	}, nil
}

type fakeDevice struct{}

func (fakeDevice) Snapshot(context.Context) (domain.DeviceProfile, error) {
	return domain.DeviceProfile{
		Build:          "generic",
		Product:        "generic",
		Model:          "Pixel 7",
		Manufacturer:   "Google",
		SDKVersion:     33,
		ClientVersion:  84122130,
		Locale:         "en_US",
		TimeZone:       "UTC",
		GSFVersionCode: 84122130,
	}, nil
}

func (fakeDevice) Resolve(_ context.Context, packageName string) (domain.ClientIdentity, error) {
	return domain.ClientIdentity{PackageName: packageName, CertHashSHA: "certhash", VersionCode: 42}, nil
}

// scriptedTransport routes requests by URL substring. Responses for a route
// are consumed in order; the last one repeats.
type scriptedTransport struct {
	mu       sync.Mutex
	routes   map[string][]ports.TransportResponse
	requests []recordedRequest
}

type recordedRequest struct {
	method string
	url    string
	body   []byte
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{routes: make(map[string][]ports.TransportResponse)}
}

func (s *scriptedTransport) script(route string, responses ...ports.TransportResponse) {
	s.mu.Lock()
	s.routes[route] = append(s.routes[route], responses...)
	s.mu.Unlock()
}

func (s *scriptedTransport) take(method, url string, body []byte) (ports.TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, recordedRequest{method: method, url: url, body: body})
	for route, queue := range s.routes {
		if strings.Contains(url, route) {
			response := queue[0]
			if len(queue) > 1 {
				s.routes[route] = queue[1:]
			}
			return response, nil
		}
	}
	return ports.TransportResponse{Status: 404}, nil
}

func (s *scriptedTransport) Post(_ context.Context, url string, _ map[string]string, body []byte) (ports.TransportResponse, error) {
	return s.take("POST", url, body)
}

func (s *scriptedTransport) Get(_ context.Context, url string, _ map[string]string) (ports.TransportResponse, error) {
	return s.take("GET", url, nil)
}

func (s *scriptedTransport) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

type fakeSettings struct {
	mu           sync.Mutex
	authRequired bool
	setCalls     []bool
}

func (f *fakeSettings) AuthRequired(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authRequired, nil
}

func (f *fakeSettings) SetAuthRequired(_ context.Context, required bool) error {
	f.mu.Lock()
	f.authRequired = required
	f.setCalls = append(f.setCalls, required)
	f.mu.Unlock()
	return nil
}

type fakeSolver struct {
	mu    sync.Mutex
	token string
	calls int
}

func (f *fakeSolver) Solve(context.Context, string, map[string]string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.token
}

type harness struct {
	clock     *fakeClock
	transport *scriptedTransport
	settings  *fakeSettings
	solver    *fakeSolver
	ledger    *ledger.Ledger
	billing   *BillingService
	flows     *BuyFlowService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLimits(t, 8, 10*time.Minute)
}

func newHarnessWithLimits(t *testing.T, maxFlows int, idleTTL time.Duration) *harness {
	t.Helper()

	clock := newTestClock()
	transport := newScriptedTransport()
	settings := &fakeSettings{}
	solver := &fakeSolver{}
	purchases := ledger.New()

	endpoints := protocol.Endpoints{
		SkuDetails:      "https://backend.test/skuDetails",
		Acquire:         "https://backend.test/acquire",
		Consume:         "https://backend.test/consumePurchase",
		Acknowledge:     "https://backend.test/acknowledgePurchase",
		PurchaseHistory: "https://backend.test/purchaseHistory",
		AuthProof:       "https://backend.test/api/rapt",
	}

	source := NewSessionSource(
		cache.NewSessionCache(time.Minute, clock),
		cache.NewResponseCache(64, time.Hour, clock),
		fakeAuth{},
		fakeDevice{},
		transport,
		endpoints,
		clock,
	)

	return &harness{
		clock:     clock,
		transport: transport,
		settings:  settings,
		solver:    solver,
		ledger:    purchases,
		billing:   NewBillingService(source, purchases),
		flows:     NewBuyFlowService(source, purchases, solver, settings, clock, maxFlows, idleTTL),
	}
}

func wrapped(t *testing.T, payload *protocol.ResponsePayload) ports.TransportResponse {
	t.Helper()
	body, err := protocol.EncodeMessage(&protocol.ResponseWrapper{Payload: payload})
	require.NoError(t, err)
	return ports.TransportResponse{Status: 200, Body: body}
}

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }
