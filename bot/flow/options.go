package flow

import "context"

// OptionsBuilder collects rows of inline options.
type OptionsBuilder struct {
	rows [][]Option
}

// Add puts a single option on its own row.
func (b *OptionsBuilder) Add(value, label string) *OptionsBuilder {
	b.rows = append(b.rows, []Option{{Value: value, Label: label}})
	return b
}

// Row puts several options on one row.
func (b *OptionsBuilder) Row(options ...Option) *OptionsBuilder {
	if len(options) > 0 {
		b.rows = append(b.rows, options)
	}
	return b
}

func (b *OptionsBuilder) Rows() [][]Option {
	return b.rows
}

// CallbackPrefix is the payload prefix of options sent from step: the full name of
// the callback step awaiting the answer followed by DataDelimiter.
func CallbackPrefix(step *Step) string {
	if step.suspendable {
		return step.FullName() + DataDelimiter
	}
	return step.FullName() + CallbackMarker + DataDelimiter
}

// Options asks a question with inline options. The answer resumes the callback step
// declared after the current one.
func (sc *StepContext) Options(ctx context.Context, question string, build func(b *OptionsBuilder), opts ...MessageOption) (MessageID, error) {
	b := &OptionsBuilder{}
	build(b)
	prefix := CallbackPrefix(sc.step)
	buttons := make([][]InlineButton, 0, len(b.rows))
	for _, row := range b.rows {
		line := make([]InlineButton, 0, len(row))
		for _, o := range row {
			line = append(line, InlineButton{Text: o.Label, Data: prefix + o.Value})
		}
		buttons = append(buttons, line)
	}
	return sc.send(ctx, OutgoingMessage{Text: question, Buttons: buttons}, opts)
}
