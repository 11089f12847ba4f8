package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"TgFlow/bot/flow"
)

// TelegramAPI defines the Telegram bot methods used by the runner.
// *gotgbot.Bot satisfies it; tests pass a fake.
type TelegramAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	DeleteMessage(chatId int64, messageId int64, opts *tgbotapi.DeleteMessageOpts) (bool, error)
	SendInvoice(chatId int64, title string, description string, payload string, currency string, prices []tgbotapi.LabeledPrice, opts *tgbotapi.SendInvoiceOpts) (*tgbotapi.Message, error)
	AnswerPreCheckoutQuery(preCheckoutQueryId string, ok bool, opts *tgbotapi.AnswerPreCheckoutQueryOpts) (bool, error)
	AnswerCallbackQuery(callbackQueryId string, opts *tgbotapi.AnswerCallbackQueryOpts) (bool, error)
	SetMyCommands(commands []tgbotapi.BotCommand, opts *tgbotapi.SetMyCommandsOpts) (bool, error)
}

// Client implements flow.Client on top of the Telegram bot API.
type Client struct {
	api           TelegramAPI
	providerToken string
}

func NewClient(api TelegramAPI, providerToken string) *Client {
	return &Client{api: api, providerToken: providerToken}
}

func (c *Client) SendMessage(_ context.Context, chatID int64, msg flow.OutgoingMessage) (int64, error) {
	opts := &tgbotapi.SendMessageOpts{ParseMode: msg.ParseMode}
	if len(msg.Buttons) > 0 {
		opts.ReplyMarkup = inlineKeyboard(msg.Buttons)
	}
	sent, err := c.api.SendMessage(chatID, msg.Text, opts)
	if err != nil {
		return 0, err
	}
	return sent.MessageId, nil
}

func (c *Client) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	_, err := c.api.DeleteMessage(chatID, messageID, nil)
	return err
}

func (c *Client) SendInvoice(_ context.Context, chatID int64, invoice flow.Invoice) (int64, error) {
	prices := make([]tgbotapi.LabeledPrice, 0, len(invoice.Prices))
	for _, p := range invoice.Prices {
		prices = append(prices, tgbotapi.LabeledPrice{Label: p.Label, Amount: p.Amount})
	}
	sent, err := c.api.SendInvoice(chatID, invoice.Title, invoice.Description, invoice.Payload, invoice.Currency, prices,
		&tgbotapi.SendInvoiceOpts{ProviderToken: c.providerToken},
	)
	if err != nil {
		return 0, fmt.Errorf("send invoice: %w", err)
	}
	return sent.MessageId, nil
}

func (c *Client) AnswerPreCheckout(_ context.Context, queryID string, ok bool, errorMessage string) error {
	var opts *tgbotapi.AnswerPreCheckoutQueryOpts
	if !ok {
		opts = &tgbotapi.AnswerPreCheckoutQueryOpts{ErrorMessage: errorMessage}
	}
	_, err := c.api.AnswerPreCheckoutQuery(queryID, ok, opts)
	return err
}

func (c *Client) AnswerCallback(_ context.Context, queryID, text string) error {
	_, err := c.api.AnswerCallbackQuery(queryID, &tgbotapi.AnswerCallbackQueryOpts{Text: text})
	return err
}

func inlineKeyboard(rows [][]flow.InlineButton) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(rows))
	for i, row := range rows {
		keyboard[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			keyboard[i][j] = tgbotapi.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
			}
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

var _ flow.Client = (*Client)(nil)
