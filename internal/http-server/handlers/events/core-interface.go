package events

type Core interface {
	EventTypes() []string
}
