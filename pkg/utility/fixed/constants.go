package fixed

var (
	Zero    = FromInt(0)
	One     = FromInt(1)
	Hundred = FromInt(100)

	// Sqrt252 annualizes daily return statistics.
	Sqrt252 = FromInt(252).Sqrt()
)
