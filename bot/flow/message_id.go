package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// MessageKind tells whether a recorded message was sent by the bot or by the user.
type MessageKind string

const (
	ServerMessage MessageKind = "S"
	UserMessage   MessageKind = "U"
)

// MessageID identifies a chat message recorded for later cleanup.
// Its text form is "<kind>:<id>", e.g. "S:42".
type MessageID struct {
	Kind MessageKind `json:"kind" bson:"kind"`
	ID   int64       `json:"id" bson:"id"`
}

func ServerMessageID(id int64) MessageID {
	return MessageID{Kind: ServerMessage, ID: id}
}

func UserMessageID(id int64) MessageID {
	return MessageID{Kind: UserMessage, ID: id}
}

func (m MessageID) String() string {
	return string(m.Kind) + ":" + strconv.FormatInt(m.ID, 10)
}

// ParseMessageID parses the text form produced by String.
func ParseMessageID(s string) (MessageID, error) {
	kind, raw, ok := strings.Cut(s, ":")
	if !ok {
		return MessageID{}, fmt.Errorf("invalid message id %q", s)
	}
	switch MessageKind(kind) {
	case ServerMessage, UserMessage:
	default:
		return MessageID{}, fmt.Errorf("invalid message id kind %q", kind)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return MessageID{}, fmt.Errorf("invalid message id %q: %w", s, err)
	}
	return MessageID{Kind: MessageKind(kind), ID: id}, nil
}

func (m MessageID) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MessageID) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageID(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
