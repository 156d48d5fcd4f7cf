package domain

type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionShow
	ActionDelay
)

func (k ActionKind) String() string {
	switch k {
	case ActionShow:
		return "show"
	case ActionDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// UIType classifies screens and clickable controls. Values are protocol
// constants; anything outside this set terminates a buy flow.
type UIType string

const (
	UITypeUnknown UIType = ""

	UITypeLoadingSpinner                       UIType = "LOADING_SPINNER"
	UITypePurchaseCartBuyButton                UIType = "PURCHASE_CART_BUY_BUTTON"
	UITypePurchaseCartContinueButton           UIType = "PURCHASE_CART_CONTINUE_BUTTON"
	UITypePurchaseChangeSubContinueButton      UIType = "PURCHASE_CHANGE_SUBSCRIPTION_CONTINUE_BUTTON"
	UITypePurchaseDeclinedContinueButton       UIType = "PURCHASE_PAYMENT_DECLINED_CONTINUE_BUTTON"
	UITypePurchasePaymentOptionsLink           UIType = "PURCHASE_PAYMENT_OPTIONS_LINK"
	UITypeBillingProfileAbandon                UIType = "BILLING_PROFILE_ABANDON"
	UITypeBillingProfileOptionCreateInstrument UIType = "BILLING_PROFILE_OPTION_CREATE_INSTRUMENT"
	UITypeBillingProfileOptionAddPlayCredit    UIType = "BILLING_PROFILE_OPTION_ADD_PLAY_CREDIT"
	UITypeBillingProfileOptionRedeemCode       UIType = "BILLING_PROFILE_OPTION_REDEEM_CODE"
	UITypeBillingProfileExistingInstrument     UIType = "BILLING_PROFILE_EXISTING_INSTRUMENT"
	UITypePurchaseAuthScreen                   UIType = "PURCHASE_AUTH_SCREEN"
	UITypePurchaseProfileScreen                UIType = "PURCHASE_PROFILE_SCREEN"
	UITypePurchaseErrorScreen                  UIType = "PURCHASE_ERROR_SCREEN"
	UITypePurchaseSuccessWithAuthChoices       UIType = "PURCHASE_SUCCESS_SCREEN_WITH_AUTH_CHOICES"
)

// Action is the flattened form of a server action wrapper chain.
//
// Context accumulates every action-context blob seen while unwrapping, in
// encounter order. UIType is set by the first wrapper that carries one;
// Challenge entries are overwritten by later wrappers.
type Action struct {
	Kind ActionKind

	// Show
	ScreenID string

	// Delay
	DelayMillis int
	DelayResult *ResultBundle

	Context     [][]byte
	UIType      UIType
	Challenge   map[string]string
	SrcScreenID string
}

// Screen is one server-declared UI state. Component is the opaque widget
// subtree passed through to the renderer untouched.
type Screen struct {
	ID        string
	UIType    UIType
	Action    *Action
	Title     string
	Component []byte
}

type ScreenGraph map[string]Screen

// Merge overlays entries from other by screen id.
func (g ScreenGraph) Merge(other ScreenGraph) {
	for id, screen := range other {
		g[id] = screen
	}
}

// AcquireResult is the parsed form of one acquire/submit round trip.
type AcquireResult struct {
	Action        *Action
	Screens       ScreenGraph
	PurchaseItems []PurchaseItem
	Result        *ResultBundle
}
