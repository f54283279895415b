package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRoundTrip(t *testing.T) {
	cases := []Action{
		{Kind: KindProduct, ProductID: 42},
		{Kind: KindPayWallet, ProductID: 42, RefID: 3},
		{Kind: KindPayInvoice, ProductID: 42, RefID: 7},
		{Kind: KindPaid, OrderID: "9f2b1c3a-1111-2222-3333-444455556666"},
		{Kind: KindApprove, OrderID: "ord-1"},
		{Kind: KindReject, OrderID: "ord-1"},
		{Kind: KindOverride, OrderID: "ord-1"},
		{Kind: KindOverrideOK, OrderID: "ord-1"},
		{Kind: KindOverrideRetry, OrderID: "ord-1"},
		{Kind: KindDetailsOK, OrderID: "ord-1"},
		{Kind: KindDetailsEdit, OrderID: "ord-1"},
		{Kind: KindFulfill, OrderID: "ord-1"},
		{Kind: KindCancel, OrderID: "ord-1"},
		{Kind: KindGateCheck},
		{Kind: KindBack},
	}

	for _, want := range cases {
		got, err := DecodeAction(want.Encode())
		require.NoError(t, err, "kind %s", want.Kind)
		assert.Equal(t, want, got)
	}
}

func TestActionEncodePartsRejoin(t *testing.T) {
	for _, want := range []Action{
		{Kind: KindPayWallet, ProductID: 42, RefID: 3},
		{Kind: KindPaid, OrderID: "ord-1"},
		{Kind: KindGateCheck},
	} {
		kind, payload := want.EncodeParts()
		data := kind
		if payload != "" {
			data = kind + sep + payload
		}
		got, err := DecodeAction(data)
		require.NoError(t, err, "kind %s", want.Kind)
		assert.Equal(t, want, got)
	}
}

func TestActionEncodeFitsCallbackLimit(t *testing.T) {
	a := Action{Kind: KindOverrideRetry, OrderID: "9f2b1c3a-1111-2222-3333-444455556666"}
	assert.LessOrEqual(t, len(a.Encode()), 64)
}

func TestDecodeActionRejectsGarbage(t *testing.T) {
	for _, data := range []string{
		"",
		"nope",
		"prod",
		"prod|abc",
		"payw|1",
		"payw|1|x",
		"approve",
		"approve|",
		"gate|extra",
	} {
		_, err := DecodeAction(data)
		assert.Error(t, err, "data %q", data)
	}
}
