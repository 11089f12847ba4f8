package sl

import (
	"log/slog"
	"strconv"
)

// Err returns an error attribute; a nil error renders as an empty value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Module tags records with the component that produced them.
func Module(name string) slog.Attr {
	return slog.String("module", name)
}

// Secret logs a masked value keeping only its edges.
func Secret(key, value string) slog.Attr {
	return slog.String(key, mask(value))
}

func Flow(id string) slog.Attr {
	return slog.String("flow", id)
}

func Step(name string) slog.Attr {
	return slog.String("step", name)
}

func Chat(id int64) slog.Attr {
	return slog.String("chat_id", strconv.FormatInt(id, 10))
}

func mask(value string) string {
	switch n := len(value); {
	case n == 0:
		return ""
	case n <= 8:
		return "***"
	default:
		return value[:3] + "***" + value[n-3:]
	}
}
