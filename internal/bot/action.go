package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback action kinds. Every inline button carries one of these with its
// typed payload instead of ad-hoc underscore-joined strings.
const (
	KindProduct       = "prod"      // show a product card
	KindPayWallet     = "payw"      // open a wallet order
	KindPayInvoice    = "payi"      // send a native invoice
	KindPaid          = "paid"      // buyer says the transfer is done
	KindCancel        = "cancel"    // buyer abandons the order
	KindApprove       = "approve"   // reviewer accepts the declared amount
	KindReject        = "reject"    // reviewer declines the receipt
	KindOverride      = "override"  // reviewer will type a corrected sum
	KindOverrideOK    = "ovrok"     // reviewer confirms the corrected sum
	KindOverrideRetry = "ovrre"     // reviewer re-enters the sum
	KindDetailsOK     = "detok"     // buyer confirms shipping details
	KindDetailsEdit   = "detedit"   // buyer restarts the details flow
	KindFulfill       = "fulfill"   // operator marks the sale handled
	KindGateCheck     = "gate"      // "I have joined" recheck
	KindBack          = "back"      // return to the catalog
)

// allKinds enumerates every callback kind, for endpoint registration.
var allKinds = []string{
	KindProduct, KindPayWallet, KindPayInvoice, KindPaid, KindCancel,
	KindApprove, KindReject, KindOverride, KindOverrideOK, KindOverrideRetry,
	KindDetailsOK, KindDetailsEdit, KindFulfill, KindGateCheck, KindBack,
}

// Action is a decoded callback payload. Which fields are set depends on Kind.
type Action struct {
	Kind      string
	OrderID   string
	ProductID int64
	RefID     int64 // wallet or payment method id, depending on Kind
}

const sep = "|"

// Encode renders the action as callback data. The result stays well under
// Telegram's 64-byte limit even with a UUID order id.
func (a Action) Encode() string {
	kind, payload := a.EncodeParts()
	if payload == "" {
		return kind
	}
	return kind + sep + payload
}

// EncodeParts splits the action into the kind and its payload. Telebot-built
// buttons carry the kind as the callback unique and the payload as data, so
// both halves survive telebot's own "\f<unique>|<data>" framing.
func (a Action) EncodeParts() (kind, payload string) {
	switch a.Kind {
	case KindProduct:
		return a.Kind, strconv.FormatInt(a.ProductID, 10)
	case KindPayWallet, KindPayInvoice:
		return a.Kind, strconv.FormatInt(a.ProductID, 10) + sep + strconv.FormatInt(a.RefID, 10)
	case KindGateCheck, KindBack:
		return a.Kind, ""
	default:
		return a.Kind, a.OrderID
	}
}

// DecodeAction parses callback data produced by Encode. Unknown kinds and
// malformed payloads are errors so stale buttons fail loudly in logs rather
// than dispatching garbage.
func DecodeAction(data string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(data), sep)
	kind := parts[0]

	switch kind {
	case KindGateCheck, KindBack:
		if len(parts) != 1 {
			return Action{}, fmt.Errorf("action %q: unexpected payload", kind)
		}
		return Action{Kind: kind}, nil

	case KindProduct:
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("action %q: want product id", kind)
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad product id %q", kind, parts[1])
		}
		return Action{Kind: kind, ProductID: id}, nil

	case KindPayWallet, KindPayInvoice:
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("action %q: want product and target ids", kind)
		}
		pid, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad product id %q", kind, parts[1])
		}
		rid, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad target id %q", kind, parts[2])
		}
		return Action{Kind: kind, ProductID: pid, RefID: rid}, nil

	case KindPaid, KindCancel, KindApprove, KindReject, KindOverride,
		KindOverrideOK, KindOverrideRetry, KindDetailsOK, KindDetailsEdit, KindFulfill:
		if len(parts) != 2 || parts[1] == "" {
			return Action{}, fmt.Errorf("action %q: want order id", kind)
		}
		return Action{Kind: kind, OrderID: parts[1]}, nil

	default:
		return Action{}, fmt.Errorf("unknown action %q", kind)
	}
}
