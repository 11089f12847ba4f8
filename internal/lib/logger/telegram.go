package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender delivers a text to the bot administrator.
type Sender interface {
	SendMessage(msg string)
}

// SetupTelegramHandler duplicates records at or above level to the administrator chat.
func SetupTelegramHandler(log *slog.Logger, sender Sender, level slog.Level) *slog.Logger {
	if sender == nil {
		return log
	}
	return slog.New(&teeHandler{
		next:   log.Handler(),
		sender: sender,
		level:  level,
	})
}

type teeHandler struct {
	next   slog.Handler
	sender Sender
	level  slog.Level
	attrs  []slog.Attr
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.level
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		h.sender.SendMessage(format(r, h.attrs))
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &teeHandler{next: h.next.WithAttrs(attrs), sender: h.sender, level: h.level, attrs: merged}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{next: h.next.WithGroup(name), sender: h.sender, level: h.level, attrs: h.attrs}
}

func format(r slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", r.Level, r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, "\n%s: %s", a.Key, a.Value.String())
		return true
	}
	for _, a := range attrs {
		write(a)
	}
	r.Attrs(write)
	return b.String()
}
