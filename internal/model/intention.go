package model

// Intention represents the behavior mode of an agent
type Intention int32

const (
	// IntentionIdle - agent is stopped, no behavior runs
	IntentionIdle Intention = iota
	// IntentionWander - agent wanders aimlessly between tiles
	IntentionWander
	// IntentionSearch - agent is alert (recently saw or currently hears the target) and drifts toward it
	IntentionSearch
	// IntentionChase - agent follows a scanned path toward the target
	IntentionChase
)

// String returns human-readable intention name
func (i Intention) String() string {
	switch i {
	case IntentionIdle:
		return "IDLE"
	case IntentionWander:
		return "WANDER"
	case IntentionSearch:
		return "SEARCH"
	case IntentionChase:
		return "CHASE"
	default:
		return "UNKNOWN"
	}
}
