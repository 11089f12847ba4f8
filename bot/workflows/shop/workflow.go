package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"TgFlow/bot/flow"
)

const (
	ID = "shop"

	StepCatalog = "catalog"
	StepInvoice = "invoice"

	KeyProduct = "product"
	menuOrder  = 20
)

// DeliveredEvent is the registered name of Delivered for the admin API.
const DeliveredEvent = "shop.delivered"

var ErrUnknownProduct = errors.New("unknown product")

// Delivered is emitted into the chat once a paid order has been shipped.
type Delivered struct {
	Product  string `json:"product" validate:"required"`
	Tracking string `json:"tracking" validate:"required"`
}

type Product struct {
	Code        string
	Title       string
	Description string
	// Amount is in the smallest units of the currency.
	Amount int64
}

func DefaultCatalog() []Product {
	return []Product{
		{Code: "tea", Title: "Green tea", Description: "A pack of loose leaf green tea", Amount: 450},
		{Code: "coffee", Title: "Coffee beans", Description: "250g of freshly roasted beans", Amount: 990},
		{Code: "mug", Title: "Mug", Description: "Ceramic mug with the bot logo", Amount: 1500},
	}
}

type workflow struct {
	currency string
	products map[string]Product
	order    []Product
}

// New builds the purchase flow: pick a product, pay the invoice, wait for the delivery.
func New(currency string, catalog []Product) (*flow.Flow, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("shop: empty catalog")
	}
	w := &workflow{
		currency: strings.ToUpper(currency),
		products: make(map[string]Product, len(catalog)),
		order:    catalog,
	}
	for _, p := range catalog {
		w.products[p.Code] = p
	}

	b := flow.NewBuilder(ID).
		WithMenu("Buy something", menuOrder).
		Step(StepCatalog, w.showCatalog).
		AwaitCallback(w.pick).
		Step(StepInvoice, w.sendInvoice).
		AwaitPreCheckout(w.checkout, flow.WithoutFallback()).
		AwaitPayment(w.paid)
	return flow.AwaitEvent(b, w.delivered, flow.WithoutFallback()).Build()
}

func (w *workflow) showCatalog(ctx context.Context, sc *flow.StepContext) flow.Signal {
	_, err := sc.Options(ctx, sc.T("shop.choose"), func(b *flow.OptionsBuilder) {
		for _, p := range w.order {
			b.Add(p.Code, fmt.Sprintf("%s · %s", p.Title, formatAmount(p.Amount, w.currency)))
		}
	})
	return flow.Fail(err)
}

func (w *workflow) pick(ctx context.Context, sc *flow.StepContext) flow.Signal {
	p, ok := w.products[sc.Value()]
	if !ok {
		return w.unknownProduct(ctx, sc)
	}
	data, err := sc.Data()
	if err != nil {
		return flow.Fail(err)
	}
	data.Set(KeyProduct, p.Code)
	return flow.Fail(sc.AnswerCallback(ctx, p.Title))
}

// unknownProduct flashes a notice, drops the stale catalog and shows it again.
func (w *workflow) unknownProduct(ctx context.Context, sc *flow.StepContext) flow.Signal {
	sc.Logger().Debug("unknown product picked", slog.String("value", sc.Value()))
	if err := sc.ShortMessage(ctx, sc.T("shop.unknown_product")); err != nil {
		return flow.Fail(err)
	}
	if err := sc.ClearPreviousStepMessages(ctx); err != nil {
		return flow.Fail(err)
	}
	return flow.Goto(StepCatalog)
}

func (w *workflow) sendInvoice(ctx context.Context, sc *flow.StepContext) flow.Signal {
	p, err := w.selected(sc)
	if err != nil {
		return flow.Fail(err)
	}
	_, err = sc.SendInvoice(ctx, flow.Invoice{
		Payload:     payload(sc.ChatID(), p.Code),
		Title:       p.Title,
		Description: p.Description,
		Currency:    w.currency,
		Prices:      []flow.Price{{Label: p.Title, Amount: p.Amount}},
	})
	return flow.Fail(err)
}

// checkout rejects queries that do not match the selected product and keeps waiting.
func (w *workflow) checkout(ctx context.Context, sc *flow.StepContext) flow.Signal {
	q := sc.Input().PreCheckout
	p, err := w.selected(sc)
	if err != nil {
		return flow.Fail(err)
	}
	if q.Payload != payload(sc.ChatID(), p.Code) || q.TotalAmount != p.Amount || !strings.EqualFold(q.Currency, w.currency) {
		if err = sc.RejectCheckout(ctx, sc.T("shop.checkout_mismatch")); err != nil {
			return flow.Fail(err)
		}
		return flow.IgnoreEvent()
	}
	return flow.Fail(sc.ConfirmCheckout(ctx))
}

func (w *workflow) paid(ctx context.Context, sc *flow.StepContext) flow.Signal {
	p, err := w.selected(sc)
	if err != nil {
		return flow.Fail(err)
	}
	payment := sc.Input().Payment
	_, err = sc.Message(ctx, sc.Tf("shop.paid", map[string]any{
		"product": p.Title,
		"amount":  formatAmount(payment.TotalAmount, payment.Currency),
	}), flow.Unrecorded())
	return flow.Fail(err)
}

// delivered ignores shipments of other products and completes the order otherwise.
func (w *workflow) delivered(ctx context.Context, sc *flow.StepContext, ev Delivered) flow.Signal {
	p, err := w.selected(sc)
	if err != nil {
		return flow.Fail(err)
	}
	if ev.Product != p.Code {
		return flow.IgnoreEvent()
	}
	_, err = sc.Message(ctx, sc.Tf("shop.delivered", map[string]any{
		"product":  p.Title,
		"tracking": ev.Tracking,
	}), flow.Unrecorded())
	return flow.Fail(err)
}

func (w *workflow) selected(sc *flow.StepContext) (Product, error) {
	data, err := sc.Data()
	if err != nil {
		return Product{}, err
	}
	code := data.Get(KeyProduct)
	p, ok := w.products[code]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, code)
	}
	return p, nil
}

func payload(chatID int64, code string) string {
	return ID + ":" + strconv.FormatInt(chatID, 10) + ":" + code
}

func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}
