package bus

type EventId uint8

const (
	TickEvent EventId = iota
	BarEvent
	EquityEvent
	BalanceEvent
	PositionOpenedEvent
	PositionUpdatedEvent
	PositionClosedEvent
	OrderAcceptedEvent
	OrderRejectedEvent
	OrderCancelledEvent
	OrderFilledEvent
)
