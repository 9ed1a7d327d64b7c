package viewset

// Lookup resolves the per-action override for action in m.
//
// A nil (never declared) map and a declared map that lacks the key are both
// reported uniformly as a miss: callers implement "optional per-action
// override, else default" without caring why no override exists. Lookup never
// errors and never mutates m, so concurrent requests may resolve against the
// same shared mapping.
func Lookup[T any](m map[Action]T, action Action) (T, bool) {
	value, ok := m[action]
	return value, ok
}
