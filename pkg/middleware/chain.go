// Package middleware wraps bus handlers with cross-cutting behavior such as
// event logging, counters and handler timing. Wrappers compose with Chain
// and are attached to the router before a run starts.
package middleware

func Chain[T any](wrappers ...func(T) T) func(T) T {
	return func(final T) T {
		for i := len(wrappers) - 1; i >= 0; i-- {
			final = wrappers[i](final)
		}
		return final
	}
}
