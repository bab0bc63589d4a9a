package constants

// FlowState is a step of the single-shot telemetry flow.
type FlowState string

const (
	FlowStateStart            FlowState = "start"
	FlowStateIdentityResolved FlowState = "identity_resolved"
	FlowStateTokenSigned      FlowState = "token_signed"
	FlowStateSessionOpen      FlowState = "session_open"
	FlowStatePublished        FlowState = "published"
	FlowStateClosed           FlowState = "closed"
	FlowStateDone             FlowState = "done"
	FlowStateFailed           FlowState = "failed"
)
