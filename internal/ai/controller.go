package ai

import "github.com/udisondev/tilechase/internal/model"

// Controller represents a per-agent behavior driven by the TickManager
type Controller interface {
	// Start starts AI controller
	Start()

	// Stop stops AI controller
	Stop()

	// SetIntention sets AI intention
	SetIntention(intention model.Intention)

	// CurrentIntention returns current AI intention
	CurrentIntention() model.Intention

	// Tick advances the controller by dt seconds (called once per frame)
	Tick(dt float64)
}
