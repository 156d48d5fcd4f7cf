package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ledger"
	"github.com/openvending/vending/internal/ports"
	"github.com/openvending/vending/internal/protocol"
	"github.com/openvending/vending/internal/uigraph"
)

type FlowState string

const (
	FlowStateAwaitingServer        FlowState = "awaiting_server"
	FlowStateShowingScreen         FlowState = "showing_screen"
	FlowStateSubmitting            FlowState = "submitting"
	FlowStateAuthRequired          FlowState = "auth_required"
	FlowStateAwaitingPaymentMethod FlowState = "awaiting_payment_method"
	FlowStateTerminal              FlowState = "terminal"
)

type FlowEvent string

const (
	FlowEventNone              FlowEvent = ""
	FlowEventOpenPaymentMethod FlowEvent = "open_payment_method"
)

const (
	challengeFlowName   = "buyFlow"
	challengeTimeout    = 30 * time.Second
	maxServerDelay      = 10 * time.Second
	successDisplayDelay = 3 * time.Second
)

// Fixed protocol context blobs attached after a successful password
// exchange, in this order.
var (
	authContextPrefix, _ = hex.DecodeString("ea010408011001b80301")
	authContextSuffix, _ = hex.DecodeString("0a020802b80301")
)

// FlowView is the renderer-facing snapshot of a flow after one call.
type FlowView struct {
	Token        string
	State        FlowState
	Screen       *domain.Screen
	HasError     bool
	ErrorMessage string
	Result       *domain.ResultBundle
	Event        FlowEvent
}

// challengeCell is a single-slot, race-tolerant holder for the latest
// solved challenge token. Reads take the value without blocking; a write
// after a read simply fills the slot again.
type challengeCell struct {
	mu    sync.Mutex
	token string
}

func (c *challengeCell) Store(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *challengeCell) Take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	token := c.token
	c.token = ""
	return token
}

type flowSession struct {
	mu sync.Mutex

	token   string
	account string
	pkgName string
	params  protocol.BuyFlowParams
	client  *protocol.Client

	state        FlowState
	lastRequest  *protocol.AcquireRequest
	lastResponse *protocol.AcquireResponse
	parsed       *domain.AcquireResult

	activeScreen      *domain.Screen
	pendingContext    [][]byte
	pendingAuthAction *domain.Action
	pendingEvent      FlowEvent
	hasError          bool
	errorMessage      string

	challenge   challengeCell
	finalResult *domain.ResultBundle

	// Liveness metadata the store scans without taking mu; a flow can
	// hold mu across a server delay.
	lastTouched atomic.Int64
	terminal    atomic.Bool
}

func (f *flowSession) touch(now time.Time) {
	f.lastTouched.Store(now.UnixNano())
}

func (f *flowSession) currentResult() *domain.ResultBundle {
	if f.parsed != nil && f.parsed.Result != nil {
		return f.parsed.Result
	}
	return nil
}

// BuyFlowService owns every outstanding purchase negotiation. Flow
// sessions live in a bounded store with idle eviction; each session is
// only ever mutated under its own lock.
type BuyFlowService struct {
	sessions *SessionSource
	ledger   *ledger.Ledger
	solver   ports.ChallengeSolver
	settings ports.SettingsStore
	clock    ports.Clock
	log      *logrus.Entry

	mu       sync.Mutex
	flows    map[string]*flowSession
	maxFlows int
	idleTTL  time.Duration
}

func NewBuyFlowService(
	sessions *SessionSource,
	purchases *ledger.Ledger,
	solver ports.ChallengeSolver,
	settings ports.SettingsStore,
	clock ports.Clock,
	maxFlows int,
	idleTTL time.Duration,
) *BuyFlowService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &BuyFlowService{
		sessions: sessions,
		ledger:   purchases,
		solver:   solver,
		settings: settings,
		clock:    clock,
		log:      logrus.WithField("component", "buyflow"),
		flows:    make(map[string]*flowSession),
		maxFlows: maxFlows,
		idleTTL:  idleTTL,
	}
}

type StartFlowParams struct {
	Account     string
	PackageName string
	Params      protocol.BuyFlowParams
}

func (p StartFlowParams) validate() error {
	if p.Account == "" {
		return domain.ErrMissingAccount
	}
	if p.PackageName == "" {
		return domain.ErrMissingPackageName
	}
	if p.Params.APIVersion < domain.MinAPIVersion || p.Params.APIVersion > domain.MaxAPIVersion {
		return fmt.Errorf("%w: %d", domain.ErrUnsupportedAPI, p.Params.APIVersion)
	}
	if len(p.Params.SerializedDocIDs) == 0 {
		if !p.Params.SkuType.Supported() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedSkuType, p.Params.SkuType)
		}
		if p.Params.SKU == "" {
			return domain.ErrMissingSku
		}
	}
	return nil
}

// StartFlow validates the purchase parameters, issues the first acquire
// round trip and hands the caller an opaque flow token.
func (s *BuyFlowService) StartFlow(ctx context.Context, p StartFlowParams) (*FlowView, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	needAuth, err := s.settings.AuthRequired(ctx)
	if err != nil {
		s.log.WithError(err).Warn("reading auth preference failed, assuming not required")
		needAuth = false
	}
	p.Params.NeedAuth = needAuth

	client, err := s.sessions.Client(ctx, p.PackageName, p.Account)
	if err != nil {
		return nil, err
	}

	request, err := protocol.NewAcquireRequest(client.Session(), p.Params, s.clock.Now())
	if err != nil {
		return nil, err
	}
	response, err := client.Acquire(ctx, request)
	if err != nil {
		return nil, err
	}

	fs := &flowSession{
		token:   uuid.NewString(),
		account: p.Account,
		pkgName: p.PackageName,
		params:  p.Params,
		client:  client,
		state:   FlowStateAwaitingServer,
	}
	fs.touch(s.clock.Now())
	s.register(fs)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.lastRequest = request
	fs.lastResponse = response
	s.resolve(ctx, fs, s.parse(fs, response))

	s.log.WithFields(logrus.Fields{
		"flow":    fs.token,
		"package": p.PackageName,
		"sku":     p.Params.SKU,
		"state":   string(fs.state),
	}).Info("buy flow started")
	return s.viewOf(fs), nil
}

// SubmitClick delivers exactly one user click to the flow and advances
// the state machine.
func (s *BuyFlowService) SubmitClick(ctx context.Context, token string, click *domain.Action) (*FlowView, error) {
	fs, err := s.flow(token)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state == FlowStateTerminal {
		return nil, domain.ErrFlowFinished
	}
	fs.touch(s.clock.Now())
	fs.hasError = false
	fs.errorMessage = ""

	if click == nil {
		s.finish(fs, fs.currentResult())
		return s.viewOf(fs), nil
	}

	switch click.Kind {
	case domain.ActionShow:
		s.dispatchShowClick(ctx, fs, click)
	case domain.ActionDelay:
		s.waitFor(ctx, time.Duration(click.DelayMillis)*time.Millisecond)
		result := click.DelayResult
		if result == nil || result.Len() == 0 {
			result = fs.currentResult()
		}
		s.finish(fs, result)
	default:
		s.dispatchPlainClick(ctx, fs, click)
	}
	return s.viewOf(fs), nil
}

func (s *BuyFlowService) dispatchShowClick(ctx context.Context, fs *flowSession, click *domain.Action) {
	switch click.UIType {
	case domain.UITypePurchaseCartBuyButton:
		s.handleBuyButton(ctx, fs, click)

	case domain.UITypePurchaseChangeSubContinueButton,
		domain.UITypePurchaseDeclinedContinueButton,
		domain.UITypePurchasePaymentOptionsLink,
		domain.UITypeBillingProfileAbandon:
		if click.ScreenID != "" {
			if screen, ok := fs.parsed.Screens[click.ScreenID]; ok {
				fs.activeScreen = &screen
				fs.state = FlowStateShowingScreen
				return
			}
		}
		s.finish(fs, fs.currentResult())

	case domain.UITypeBillingProfileOptionCreateInstrument,
		domain.UITypeBillingProfileOptionAddPlayCredit,
		domain.UITypeBillingProfileOptionRedeemCode:
		fs.state = FlowStateAwaitingPaymentMethod
		fs.pendingEvent = FlowEventOpenPaymentMethod

	case domain.UITypeBillingProfileExistingInstrument:
		s.submit(ctx, fs, click, "")

	default:
		s.finish(fs, fs.currentResult())
	}
}

func (s *BuyFlowService) dispatchPlainClick(ctx context.Context, fs *flowSession, click *domain.Action) {
	switch click.UIType {
	case domain.UITypePurchaseCartContinueButton:
		s.submit(ctx, fs, click, "")
	case domain.UITypePurchaseSuccessWithAuthChoices:
		s.waitFor(ctx, successDisplayDelay)
		s.finish(fs, fs.currentResult())
	default:
		s.finish(fs, fs.currentResult())
	}
}

func (s *BuyFlowService) handleBuyButton(ctx context.Context, fs *flowSession, click *domain.Action) {
	next, ok := fs.parsed.Screens[click.ScreenID]
	if !ok {
		s.finish(fs, fs.currentResult())
		return
	}
	switch next.UIType {
	case domain.UITypeLoadingSpinner:
		s.submit(ctx, fs, click, "")
	case domain.UITypePurchaseAuthScreen:
		fs.pendingAuthAction = click
		fs.state = FlowStateAuthRequired
	default:
		s.finish(fs, fs.currentResult())
	}
}

// SubmitPassword runs the proof-token exchange for a flow waiting in
// AuthRequired. A rejected password keeps the flow alive: it returns to
// the active screen with an error annotation and the pending action
// context intact.
func (s *BuyFlowService) SubmitPassword(ctx context.Context, token, password string, disablePrompt bool) (*FlowView, error) {
	fs, err := s.flow(token)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state != FlowStateAuthRequired {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnexpectedFlowState, fs.state)
	}
	fs.touch(s.clock.Now())

	proofToken, err := fs.client.RequestAuthProof(ctx, password)
	if err != nil {
		s.log.WithError(err).WithField("flow", fs.token).Debug("auth proof exchange failed")
		fs.hasError = true
		fs.errorMessage = err.Error()
		fs.state = FlowStateShowingScreen
		return s.viewOf(fs), nil
	}

	if err := s.settings.SetAuthRequired(ctx, !disablePrompt); err != nil {
		s.log.WithError(err).Warn("persisting auth preference failed")
	}

	action := fs.pendingAuthAction
	if action == nil {
		action = &domain.Action{Kind: domain.ActionShow}
	}
	action.Context = append(action.Context, authContextPrefix, authContextSuffix)
	fs.pendingAuthAction = nil

	s.submit(ctx, fs, action, proofToken)
	return s.viewOf(fs), nil
}

// ResumePaymentMethod re-enters the negotiation after the external
// payment-method flow reports completion.
func (s *BuyFlowService) ResumePaymentMethod(ctx context.Context, token string) (*FlowView, error) {
	fs, err := s.flow(token)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state != FlowStateAwaitingPaymentMethod {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnexpectedFlowState, fs.state)
	}
	fs.touch(s.clock.Now())
	fs.pendingEvent = FlowEventNone

	s.submit(ctx, fs, &domain.Action{Kind: domain.ActionShow}, "")
	return s.viewOf(fs), nil
}

func (s *BuyFlowService) CancelFlow(ctx context.Context, token string) (*FlowView, error) {
	fs, err := s.flow(token)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.state != FlowStateTerminal {
		s.finish(fs, domain.NewResultBundle(domain.ResultUserCanceled))
	}
	return s.viewOf(fs), nil
}

// submit issues one continuation round trip. Action context order is
// fixed: blobs still pending from the last response first, then the
// clicked action's own.
func (s *BuyFlowService) submit(ctx context.Context, fs *flowSession, action *domain.Action, authToken string) {
	fs.state = FlowStateSubmitting

	blobs := make([][]byte, 0, len(fs.pendingContext)+len(action.Context))
	blobs = append(blobs, fs.pendingContext...)
	blobs = append(blobs, action.Context...)

	request := protocol.ContinueAcquireRequest(
		fs.lastRequest,
		fs.lastResponse,
		blobs,
		fs.challenge.Take(),
		authToken,
		s.clock.Now(),
	)
	response, err := fs.client.Acquire(ctx, request)
	if err != nil {
		s.log.WithError(err).WithField("flow", fs.token).Warn("continuation round trip failed")
		s.finish(fs, domain.NewResultBundleWithMessage(domain.ResultBillingUnavailable, err.Error()))
		return
	}

	fs.lastRequest = request
	fs.lastResponse = response
	fs.pendingContext = nil
	s.resolve(ctx, fs, s.parse(fs, response))
}

func (s *BuyFlowService) parse(fs *flowSession, response *protocol.AcquireResponse) *domain.AcquireResult {
	return uigraph.ParseAcquireResponse(response, uigraph.FlowContext{
		SkuType: fs.params.SkuType,
		SKU:     fs.params.SKU,
	})
}

// resolve applies one parsed response to the flow. Called with fs.mu
// held.
func (s *BuyFlowService) resolve(ctx context.Context, fs *flowSession, parsed *domain.AcquireResult) {
	fs.parsed = parsed

	// Ledger before the caller can observe the result.
	list := s.ledger.For(fs.account, fs.pkgName)
	for _, item := range parsed.PurchaseItems {
		list.Add(item)
	}

	if len(parsed.Action.Challenge) > 0 {
		s.solveChallenge(fs, parsed.Action.Challenge)
	}
	fs.pendingContext = parsed.Action.Context

	if parsed.Action.Kind != domain.ActionShow {
		s.finish(fs, parsed.Result)
		return
	}
	screen, ok := parsed.Screens[parsed.Action.ScreenID]
	if !ok {
		s.finish(fs, parsed.Result)
		return
	}

	if screen.UIType == domain.UITypePurchaseProfileScreen {
		fs.activeScreen = &screen
		fs.state = FlowStateAwaitingPaymentMethod
		fs.pendingEvent = FlowEventOpenPaymentMethod
		return
	}

	fs.activeScreen = &screen
	fs.state = FlowStateShowingScreen

	// Screens can carry their own delay action, fired without user input.
	if screen.Action != nil && screen.Action.Kind == domain.ActionDelay {
		s.waitFor(ctx, time.Duration(screen.Action.DelayMillis)*time.Millisecond)
		result := screen.Action.DelayResult
		if result == nil || result.Len() == 0 {
			result = parsed.Result
		}
		s.finish(fs, result)
	}
}

// solveChallenge is fire-and-forget: the flow never waits for the token,
// it reads whatever is in the cell at the next round trip. A result
// arriving after the flow finished is discarded.
func (s *BuyFlowService) solveChallenge(fs *flowSession, challenge map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), challengeTimeout)
		defer cancel()
		token := s.solver.Solve(ctx, challengeFlowName, challenge)

		fs.mu.Lock()
		defer fs.mu.Unlock()
		if fs.state == FlowStateTerminal {
			return
		}
		fs.challenge.Store(token)
	}()
}

// finish terminates the flow. A bundle without a definitive response code
// is replaced by user-canceled; callers never see an ambiguous result.
func (s *BuyFlowService) finish(fs *flowSession, result *domain.ResultBundle) {
	if result == nil {
		result = domain.NewResultBundle(domain.ResultUserCanceled)
	} else if _, ok := result.Code(); !ok {
		result = result.Clone()
		result.SetCode(domain.ResultUserCanceled)
	}
	fs.finalResult = result
	fs.state = FlowStateTerminal
	fs.terminal.Store(true)
	fs.activeScreen = nil
	fs.pendingEvent = FlowEventNone

	code, _ := result.Code()
	s.log.WithFields(logrus.Fields{
		"flow": fs.token,
		"code": code,
	}).Info("buy flow finished")
}

func (s *BuyFlowService) waitFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if d > maxServerDelay {
		d = maxServerDelay
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (s *BuyFlowService) flow(token string) (*flowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.flows[token]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return fs, nil
}

// register stores the flow, evicting finished and idle sessions first and
// cancelling the oldest one if the store is still full. The scan reads
// only the flows' atomic liveness metadata; taking another flow's mu here
// would stall every registration behind a flow sleeping in a server
// delay.
func (s *BuyFlowService) register(fs *flowSession) {
	now := s.clock.Now()

	s.mu.Lock()
	var oldest *flowSession
	var oldestTouched time.Time
	for token, existing := range s.flows {
		touched := time.Unix(0, existing.lastTouched.Load())
		if existing.terminal.Load() || now.Sub(touched) > s.idleTTL {
			delete(s.flows, token)
			continue
		}
		if oldest == nil || touched.Before(oldestTouched) {
			oldest = existing
			oldestTouched = touched
		}
	}
	if len(s.flows) < s.maxFlows || oldest == nil {
		oldest = nil
	} else {
		delete(s.flows, oldest.token)
	}
	s.flows[fs.token] = fs
	s.mu.Unlock()

	// Cancel the evicted flow outside the service lock; it may be mid
	// round trip holding its own lock.
	if oldest != nil {
		oldest.mu.Lock()
		if oldest.state != FlowStateTerminal {
			s.finish(oldest, domain.NewResultBundle(domain.ResultUserCanceled))
		}
		oldest.mu.Unlock()
	}
}

// viewOf snapshots the flow for the caller. Called with fs.mu held.
func (s *BuyFlowService) viewOf(fs *flowSession) *FlowView {
	view := &FlowView{
		Token:        fs.token,
		State:        fs.state,
		Screen:       fs.activeScreen,
		HasError:     fs.hasError,
		ErrorMessage: fs.errorMessage,
		Event:        fs.pendingEvent,
	}
	if fs.state == FlowStateTerminal {
		view.Result = fs.finalResult
	} else {
		view.Result = fs.currentResult()
	}
	return view
}
