// state
package component

// deriveInitialState computes a new worker's starting state. A constant
// default is returned as-is, or fully replaced by a caller-supplied
// override. A function default is called with nil when there is no
// override and with the override value when there is; its return value
// is the state.
func deriveInitialState(defaultState any, override any, hasOverride bool) any {
	if fn, ok := defaultState.(func(any) any); ok {
		if hasOverride {
			return fn(override)
		}
		return fn(nil)
	}
	if hasOverride {
		return override
	}
	return defaultState
}
