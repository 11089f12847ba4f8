package metrics

import "TgFlow/bot/flow"

type Core interface {
	Metrics() (flow.MetricsSnapshot, error)
}
