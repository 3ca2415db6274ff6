// serviceMsg
package component

const (
	msgTypeCast = iota
	msgTypeCall
)
const (
	msgTypePoison = iota + 9000
)

// all worker mailbox messages have this structure
type serviceMsg interface {
	Type() int
	Op() string
	Args() []any
	IsPoison() bool
}

type opMsg struct {
	msgType int
	op      string
	args    []any
}

func (m opMsg) Type() int {
	return m.msgType
}

func (m opMsg) Op() string {
	return m.op
}

func (m opMsg) Args() []any {
	return m.args
}

// check poison message
func (m opMsg) IsPoison() bool {
	return m.msgType == msgTypePoison
}

func newCastMsg(op string, args []any) opMsg {
	return opMsg{msgTypeCast, op, args}
}

func newPoisonMsg() opMsg {
	return opMsg{msgTypePoison, "", nil}
}

// a two-way request carries its reply channel
type callMsg struct {
	opMsg
	replyChan chan callReply
}

type callReply struct {
	value any
	err   error
}

func newCallMsg(op string, args []any) callMsg {
	// replyChan is buffered so the worker never blocks answering a
	// caller that already timed out
	return callMsg{opMsg{msgTypeCall, op, args}, make(chan callReply, 1)}
}

// answer a two-way request; one-way messages have nowhere to reply to
func (m callMsg) reply(value any, err error) {
	m.replyChan <- callReply{value, err}
}
