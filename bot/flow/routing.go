package flow

import (
	"reflect"
	"strings"
)

// Acceptable decides whether step is the target an input should resume. For
// callbacks it also returns the picked option value.
func Acceptable(step *Step, in Input) (string, bool) {
	switch in.Kind {
	case InputCommand:
		return "", !step.suspendable
	case InputText:
		return "", step.suspendable && strings.HasSuffix(step.name, TextMarker)
	case InputCallback:
		if !step.suspendable || !strings.HasSuffix(step.name, CallbackMarker) || in.Callback == nil {
			return "", false
		}
		return callbackValue(step, in.Callback.Data)
	case InputPreCheckout:
		return "", step.suspendable && strings.HasSuffix(step.name, PreCheckoutMarker)
	case InputPayment:
		return "", step.suspendable && strings.HasSuffix(step.name, PaymentMarker)
	case InputEvent:
		if !step.suspendable || in.Event == nil {
			return "", false
		}
		return "", strings.HasSuffix(step.name, EventMarker+DataDelimiter+TypeName(reflect.TypeOf(in.Event)))
	default:
		return "", false
	}
}

// callbackValue matches payloads "<step full name>|value" and the short form
// "<flow>/<base name>|value".
func callbackValue(step *Step, data string) (string, bool) {
	for _, prefix := range []string{
		step.FullName(),
		step.flow.id + PathDelimiter + step.BaseName(),
	} {
		if rest, ok := strings.CutPrefix(data, prefix+DataDelimiter); ok {
			return rest, true
		}
	}
	return "", false
}

// CallbackStepName extracts the full step name addressed by a callback payload.
func CallbackStepName(data string) string {
	name, _, _ := strings.Cut(data, DataDelimiter)
	return name
}
