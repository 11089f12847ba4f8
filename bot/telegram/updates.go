package telegram

import (
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"TgFlow/bot/flow"
)

// Incoming is an update reduced to what the flow engine consumes.
type Incoming struct {
	ChatID   int64
	Language string
	Input    flow.Input
}

// Classify turns a Telegram update into a flow input. Updates the engine has no
// use for return false.
func Classify(u *tgbotapi.Update) (Incoming, bool) {
	switch {
	case u.PreCheckoutQuery != nil:
		q := u.PreCheckoutQuery
		return Incoming{
			ChatID:   q.From.Id,
			Language: q.From.LanguageCode,
			Input: flow.PreCheckoutInput(flow.PreCheckout{
				ID:          q.Id,
				Currency:    q.Currency,
				TotalAmount: q.TotalAmount,
				Payload:     q.InvoicePayload,
			}),
		}, true

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		chatID := cq.From.Id
		var messageID int64
		if cq.Message != nil {
			chatID = cq.Message.GetChat().Id
			messageID = cq.Message.GetMessageId()
		}
		in := flow.CallbackInput(cq.Id, cq.Data)
		in.MessageID = messageID
		return Incoming{ChatID: chatID, Language: cq.From.LanguageCode, Input: in}, true

	case u.Message != nil:
		return classifyMessage(u.Message)
	}
	return Incoming{}, false
}

func classifyMessage(m *tgbotapi.Message) (Incoming, bool) {
	inc := Incoming{ChatID: m.Chat.Id}
	if m.From != nil {
		inc.Language = m.From.LanguageCode
	}

	switch {
	case m.SuccessfulPayment != nil:
		p := m.SuccessfulPayment
		inc.Input = flow.PaymentInput(flow.Payment{
			Currency:         p.Currency,
			TotalAmount:      p.TotalAmount,
			Payload:          p.InvoicePayload,
			TelegramChargeID: p.TelegramPaymentChargeId,
			ProviderChargeID: p.ProviderPaymentChargeId,
		})
	case strings.HasPrefix(m.Text, "/"):
		command, args := ParseCommand(m.Text)
		if command == "" {
			return Incoming{}, false
		}
		inc.Input = flow.CommandInput(command, args...)
	case m.Text != "":
		inc.Input = flow.TextInput(m.Text)
	default:
		return Incoming{}, false
	}
	inc.Input.MessageID = m.MessageId
	return inc, true
}

// ParseCommand splits "/name@bot arg1 arg2" into the command name and its arguments.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return "", nil
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return command, fields[1:]
}
