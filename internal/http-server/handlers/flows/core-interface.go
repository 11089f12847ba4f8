package flows

import "TgFlow/entity"

type Core interface {
	FlowsInfo() []entity.FlowInfo
}
