package bus

type EventId uint8

const (
	// Inbound, produced by feed adapters or the replay scheduler.
	TradeEvent EventId = iota
	QuoteEvent
	DepthEvent

	// Outbound, produced by the engine for the broadcast boundary.
	TradeUpdateEvent
	DomUpdateEvent
	FootprintUpdateEvent
	CvdUpdateEvent
	TapeMetricsEvent
	MetricsUpdateEvent
	AlertEvent

	// Internal cadence trigger for the periodic metrics roll-up.
	MetricsFlushEvent
)
