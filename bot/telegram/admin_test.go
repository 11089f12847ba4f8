package telegram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TgFlow/bot/telegram"
)

func TestAdminNotifierEscapesMarkdown(t *testing.T) {
	api := &fakeAPI{}
	telegram.NewAdminNotifier(api, 77, discard()).SendMessage("flow.engine failed (step a-b)!")

	assert.Equal(t, []int64{77}, api.chats)
	assert.Equal(t, []string{`flow\.engine failed \(step a\-b\)\!`}, api.texts)
	assert.Equal(t, []string{"MarkdownV2"}, api.modes)
}

func TestAdminNotifierFallsBackToPlainText(t *testing.T) {
	api := &fakeAPI{rejectMarkdown: true}
	telegram.NewAdminNotifier(api, 77, discard()).SendMessage("a_b")

	assert.Equal(t, []string{"a_b"}, api.texts)
	assert.Equal(t, []string{""}, api.modes)
}

func TestAdminNotifierWithoutAdmin(t *testing.T) {
	api := &fakeAPI{}
	telegram.NewAdminNotifier(api, 0, discard()).SendMessage("hello")
	assert.Empty(t, api.texts)
}
