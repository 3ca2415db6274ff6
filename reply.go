// reply
package component

// StateChange is returned from a two-way operation body to replace the
// worker's state as well as reply. A two-way body returning anything
// else replies that value and leaves the state untouched.
type StateChange struct {
	state any
	reply any
}

// SetStateAndReturn sets the state to v and replies v.
func SetStateAndReturn(v any) StateChange {
	return StateChange{v, v}
}

// SetStateThen sets the state to state and replies reply, letting a
// two-way operation return a different value than the new state - the
// return-old-then-update pattern.
func SetStateThen(state any, reply any) StateChange {
	return StateChange{state, reply}
}
