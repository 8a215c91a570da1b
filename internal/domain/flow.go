package domain

// FlowKind tags which multi-step dialogue, if any, a customer is in.
// Representing the state as a tag plus step (instead of a nullable string
// pair) keeps a flow name without a matching step unrepresentable.
type FlowKind int

const (
	// FlowIdle means no dialogue is active. A customer with no stored row
	// is idle by definition.
	FlowIdle FlowKind = iota

	// FlowAwaitingIdentifier means the order-tracking dialogue asked for an
	// order identifier and is waiting for the next inbound message.
	FlowAwaitingIdentifier
)

// Stored names for the order-tracking dialogue. These are what the flow_state
// row carries; FlowStateFromRow maps them back onto the tagged form.
const (
	FlowNameOrderTracking  = "order_tracking"
	StepAwaitingIdentifier = "await_identifier"
)

// FlowState is the persisted position of one customer inside a dialogue.
// Data carries dialogue-local scratch values across turns.
type FlowState struct {
	Kind FlowKind
	Data map[string]string
}

// Idle is the zero state: no active dialogue, empty scratch data.
func Idle() FlowState {
	return FlowState{Kind: FlowIdle}
}

// AwaitingIdentifier returns the state in which the next inbound message is
// expected to carry an order identifier.
func AwaitingIdentifier() FlowState {
	return FlowState{Kind: FlowAwaitingIdentifier}
}

// Row returns the (flowName, step) pair to persist, or ("", "") for idle,
// in which case the caller clears the row instead of writing it.
func (s FlowState) Row() (flowName, step string) {
	switch s.Kind {
	case FlowAwaitingIdentifier:
		return FlowNameOrderTracking, StepAwaitingIdentifier
	default:
		return "", ""
	}
}

// FlowStateFromRow maps a stored (flowName, step) pair back onto the tagged
// state. Unknown or partial pairs collapse to idle so a bad row can never
// strand a conversation.
func FlowStateFromRow(flowName, step string, data map[string]string) FlowState {
	if flowName == FlowNameOrderTracking && step == StepAwaitingIdentifier {
		return FlowState{Kind: FlowAwaitingIdentifier, Data: data}
	}
	return FlowState{Kind: FlowIdle, Data: data}
}
