package adapter

import "context"

// Event describes one thing that happened to a session.
type Event struct {
	Name      string
	SessionID string
	Props     map[string]any
}

// Telemetry receives exactly one event per controller action.
type Telemetry interface {
	Track(ctx context.Context, ev Event)
}
