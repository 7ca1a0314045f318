package match

const (
	// EngineVersion identifies the matching semantics implemented by this
	// package, surfaced in logs and in the engine's Stats.
	EngineVersion = "v1.0.0"

	// DefaultInboundQueueSize is the capacity of the Engine's single
	// inbound channel. A full queue is a drop, not a block — see
	// Engine.Submit.
	DefaultInboundQueueSize = 32768

	// MaxPriceLevelsPerSide bounds how many distinct prices may rest on one
	// side of a book at once.
	MaxPriceLevelsPerSide = 10_000

	// MaxOrdersPerPriceLevel bounds how many orders may rest at a single
	// price on a single side.
	MaxOrdersPerPriceLevel = 10_000

	// MaxMatchIterations bounds how many fills a single incoming order may
	// make in one sweep; reaching it is an invariant violation, so the
	// matching loop panics rather than spin forever against a
	// pathologically fragmented book.
	MaxMatchIterations = 100_000

	// MaxSymbols bounds how many distinct order books the engine will
	// create, whether from explicit registration or on-demand creation by
	// an incoming NEW_ORDER.
	MaxSymbols = 1024
)
