package testutil

import (
	"sync"

	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// ProbeCall records one probe invocation.
type ProbeCall struct {
	Origin    model.Vec3
	Direction model.Vec3
	Distance  float64
	Layers    geo.Layer
	Hit       bool
}

// RecordingProber wraps a Prober and records every call.
type RecordingProber struct {
	inner geo.Prober

	mu    sync.Mutex
	calls []ProbeCall
}

// NewRecordingProber creates a RecordingProber around inner.
func NewRecordingProber(inner geo.Prober) *RecordingProber {
	return &RecordingProber{inner: inner}
}

// Probe forwards to the wrapped prober and records the call.
func (r *RecordingProber) Probe(origin, direction model.Vec3, maxDistance float64, layers geo.Layer) (geo.Hit, bool) {
	hit, ok := r.inner.Probe(origin, direction, maxDistance, layers)

	r.mu.Lock()
	r.calls = append(r.calls, ProbeCall{
		Origin:    origin,
		Direction: direction,
		Distance:  maxDistance,
		Layers:    layers,
		Hit:       ok,
	})
	r.mu.Unlock()

	return hit, ok
}

// Calls returns a copy of recorded calls.
func (r *RecordingProber) Calls() []ProbeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProbeCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CountLayer returns how many recorded calls targeted exactly layers.
func (r *RecordingProber) CountLayer(layers geo.Layer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Layers == layers {
			n++
		}
	}
	return n
}
