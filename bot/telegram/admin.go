package telegram

import (
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"TgFlow/bot/flow"
	"TgFlow/internal/i18n"
	"TgFlow/internal/lib/sl"
)

// AdminNotifier sends service notices to the bot administrator. It must be given
// a logger that does not itself forward records to the administrator.
type AdminNotifier struct {
	api     TelegramAPI
	adminID int64
	log     *slog.Logger
}

func NewAdminNotifier(api TelegramAPI, adminID int64, log *slog.Logger) *AdminNotifier {
	return &AdminNotifier{
		api:     api,
		adminID: adminID,
		log:     log.With(sl.Module("telegram.admin")),
	}
}

// SendMessage delivers msg as escaped MarkdownV2 and retries as plain text when
// Telegram rejects the markup. Without an administrator it does nothing.
func (n *AdminNotifier) SendMessage(msg string) {
	if n.adminID == 0 || msg == "" {
		return
	}
	_, err := n.api.SendMessage(n.adminID, i18n.EscapeMarkdown(msg), &tgbotapi.SendMessageOpts{
		ParseMode: flow.ParseModeMarkdownV2,
	})
	if err == nil {
		return
	}
	n.log.With(sl.Chat(n.adminID)).Warn("sending admin message", sl.Err(err))
	if _, err = n.api.SendMessage(n.adminID, msg, &tgbotapi.SendMessageOpts{}); err != nil {
		n.log.With(sl.Chat(n.adminID)).Error("sending plain admin message", sl.Err(err))
	}
}
