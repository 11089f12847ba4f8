package shop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TgFlow/bot/flow"
	"TgFlow/bot/flow/flowtest"
	"TgFlow/bot/workflows/shop"
)

func newShop(t *testing.T) *flowtest.Harness {
	t.Helper()
	f, err := shop.New("eur", shop.DefaultCatalog())
	require.NoError(t, err)
	return flowtest.New(t, f)
}

func pickTea(t *testing.T, h *flowtest.Harness) {
	t.Helper()
	require.NoError(t, h.Send(t, 7, flow.CommandInput(shop.ID)))
	require.Len(t, h.Client.Sent, 1)
	buttons := h.Client.Sent[0].Buttons
	require.Len(t, buttons, 3)
	assert.Equal(t, "Green tea · 4.50 EUR", buttons[0][0].Text)

	require.NoError(t, h.Send(t, 7, flow.CallbackInput("cb-1", buttons[0][0].Data)))
	require.Len(t, h.Client.Invoices, 1)
	assert.Equal(t, "shop/catalog/suspended/callback|tea", buttons[0][0].Data)
}

func TestShopPurchase(t *testing.T) {
	h := newShop(t)
	pickTea(t, h)

	invoice := h.Client.Invoices[0]
	assert.Equal(t, "shop:7:tea", invoice.Payload)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.Equal(t, []flow.Price{{Label: "Green tea", Amount: 450}}, invoice.Prices)
	assert.Equal(t, []string{"cb-1"}, h.Client.Callbacks)
	assert.Equal(t, "invoice/suspended/pre_checkout", h.Step(t, 7))

	require.NoError(t, h.Send(t, 7, flow.PreCheckoutInput(flow.PreCheckout{
		ID: "q1", Currency: "EUR", TotalAmount: 450, Payload: "shop:7:tea",
	})))
	assert.Equal(t, []flowtest.CheckoutAnswer{{QueryID: "q1", OK: true}}, h.Client.Checkouts)
	assert.Equal(t, "invoice/suspended/successful_payment", h.Step(t, 7))

	require.NoError(t, h.Send(t, 7, flow.PaymentInput(flow.Payment{
		Currency: "EUR", TotalAmount: 450, Payload: "shop:7:tea",
	})))
	assert.Equal(t, "shop.paid", h.Client.Texts()[len(h.Client.Sent)-1])
	assert.Equal(t, "invoice/suspended/event|TgFlow/bot/workflows/shop.Delivered", h.Step(t, 7))
	assert.Equal(t, flow.FlowStateActive, h.FlowState(t, 7))

	// a shipment of another product does not complete the order
	require.NoError(t, h.Send(t, 7, flow.EventInput(shop.Delivered{Product: "mug", Tracking: "X1"})))
	assert.Equal(t, flow.FlowStateActive, h.FlowState(t, 7))

	require.NoError(t, h.Send(t, 7, flow.EventInput(shop.Delivered{Product: "tea", Tracking: "X2"})))
	assert.Equal(t, flow.FlowStateCompleted, h.FlowState(t, 7))
	assert.Equal(t, "shop.delivered", h.Client.Texts()[len(h.Client.Sent)-1])
	// catalog message and invoice are removed, receipts stay
	assert.ElementsMatch(t, []int64{1, 2}, h.Client.Deleted)
}

func TestShopRejectsMismatchedCheckout(t *testing.T) {
	h := newShop(t)
	pickTea(t, h)

	require.NoError(t, h.Send(t, 7, flow.PreCheckoutInput(flow.PreCheckout{
		ID: "q1", Currency: "EUR", TotalAmount: 1, Payload: "shop:7:tea",
	})))
	assert.Equal(t, []flowtest.CheckoutAnswer{{QueryID: "q1", Reason: "shop.checkout_mismatch"}}, h.Client.Checkouts)
	assert.Equal(t, "invoice/suspended/pre_checkout", h.Step(t, 7))
	assert.Equal(t, flow.FlowStateActive, h.FlowState(t, 7))
}

func TestShopUnknownProductShowsCatalogAgain(t *testing.T) {
	h := newShop(t)
	require.NoError(t, h.Send(t, 7, flow.CommandInput(shop.ID)))

	require.NoError(t, h.Send(t, 7, flow.CallbackInput("cb-1", "shop/catalog|caviar")))
	assert.Empty(t, h.Client.Invoices)
	assert.Equal(t, []string{"shop.choose", "shop.unknown_product", "shop.choose"}, h.Client.Texts())
	// the notice is removed after its lifetime, the stale catalog right away
	assert.Equal(t, []int64{2, 1}, h.Client.Deleted)
	assert.Equal(t, []time.Duration{flow.ShortMessageLifetime}, h.Slept())
	assert.Equal(t, "catalog/suspended/callback", h.Step(t, 7))

	require.NoError(t, h.Send(t, 7, flow.CallbackInput("cb-2", h.Client.Sent[2].Buttons[1][0].Data)))
	require.Len(t, h.Client.Invoices, 1)
	assert.Equal(t, "Coffee beans", h.Client.Invoices[0].Title)
}

func TestShopRequiresCatalog(t *testing.T) {
	_, err := shop.New("EUR", nil)
	assert.Error(t, err)
}
