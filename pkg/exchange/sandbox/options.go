package sandbox

type Option func(*Engine)

func WithFillModel(model FillModel) Option {
	return func(e *Engine) {
		e.fillModel = model
	}
}

func WithCommissionModel(model CommissionModel) Option {
	return func(e *Engine) {
		e.commission = model
	}
}

// WithSeed fixes the fill model rng. Runs with the same seed, order stream
// and market data produce identical fills.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}
