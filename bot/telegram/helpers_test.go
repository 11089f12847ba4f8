package telegram_test

import (
	"errors"
	"sync"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

type fakeAPI struct {
	mu        sync.Mutex
	nextID    int64
	texts     []string
	markups   []tgbotapi.ReplyMarkup
	deleted   []int64
	invoices  []string
	tokens    []string
	checkouts []bool
	callbacks []string
	commands  []tgbotapi.BotCommand
	chats     []int64
	modes     []string

	rejectMarkdown bool
}

func (f *fakeAPI) SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectMarkdown && opts != nil && opts.ParseMode != "" {
		return nil, errors.New("Bad Request: can't parse entities")
	}
	f.nextID++
	f.chats = append(f.chats, chatId)
	if opts != nil {
		f.modes = append(f.modes, opts.ParseMode)
	}
	f.texts = append(f.texts, text)
	if opts != nil {
		f.markups = append(f.markups, opts.ReplyMarkup)
	}
	return &tgbotapi.Message{MessageId: f.nextID, Chat: tgbotapi.Chat{Id: chatId}}, nil
}

func (f *fakeAPI) DeleteMessage(_ int64, messageId int64, _ *tgbotapi.DeleteMessageOpts) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageId)
	return true, nil
}

func (f *fakeAPI) SendInvoice(chatId int64, title string, _ string, _ string, _ string, _ []tgbotapi.LabeledPrice, opts *tgbotapi.SendInvoiceOpts) (*tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.invoices = append(f.invoices, title)
	if opts != nil {
		f.tokens = append(f.tokens, opts.ProviderToken)
	}
	return &tgbotapi.Message{MessageId: f.nextID, Chat: tgbotapi.Chat{Id: chatId}}, nil
}

func (f *fakeAPI) AnswerPreCheckoutQuery(_ string, ok bool, _ *tgbotapi.AnswerPreCheckoutQueryOpts) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, ok)
	return true, nil
}

func (f *fakeAPI) AnswerCallbackQuery(callbackQueryId string, _ *tgbotapi.AnswerCallbackQueryOpts) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callbackQueryId)
	return true, nil
}

func (f *fakeAPI) SetMyCommands(commands []tgbotapi.BotCommand, _ *tgbotapi.SetMyCommandsOpts) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = commands
	return true, nil
}

func textUpdate(chatID, messageID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateId: messageID,
		Message: &tgbotapi.Message{
			MessageId: messageID,
			Chat:      tgbotapi.Chat{Id: chatID, Type: "private"},
			From:      &tgbotapi.User{Id: chatID, LanguageCode: "en"},
			Text:      text,
		},
	}
}

func callbackUpdate(chatID int64, id, data string) *tgbotapi.Update {
	return &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			Id:   id,
			From: tgbotapi.User{Id: chatID},
			Data: data,
		},
	}
}
