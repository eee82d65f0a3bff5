// ABOUTME: Control message definitions for the remote surface
// ABOUTME: JSON messages for reading and changing filter parameters
package remote

import "github.com/Sendspin/filterplay/pkg/tap"

// Message types
const (
	TypeSet   = "set"
	TypeGet   = "get"
	TypeState = "state"
	TypeError = "error"
)

// Message is the single envelope used in both directions. Parameter fields
// are pointers so a set request can carry a partial update.
type Message struct {
	Type      string   `json:"type"`
	ID        string   `json:"id,omitempty"`
	Enabled   *bool    `json:"enabled,omitempty"`
	Frequency *float64 `json:"frequency,omitempty"`
	Gain      *float64 `json:"gain,omitempty"`
	Asset     string   `json:"asset,omitempty"`
	Player    string   `json:"player,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SetMessage builds a set request. Nil fields are left unchanged.
func SetMessage(enabled *bool, frequency, gain *float64) Message {
	return Message{
		Type:      TypeSet,
		Enabled:   enabled,
		Frequency: frequency,
		Gain:      gain,
	}
}

// StateMessage describes the full parameter tuple
func StateMessage(p tap.Params) Message {
	return Message{
		Type:      TypeState,
		Enabled:   &p.Enabled,
		Frequency: &p.CornerFrequency,
		Gain:      &p.Gain,
	}
}

// Merge overlays the fields present in m onto p
func (m Message) Merge(p tap.Params) tap.Params {
	if m.Enabled != nil {
		p.Enabled = *m.Enabled
	}
	if m.Frequency != nil {
		p.CornerFrequency = *m.Frequency
	}
	if m.Gain != nil {
		p.Gain = *m.Gain
	}
	return p
}

// Params returns the tuple carried by a state message. Missing fields take
// their default values.
func (m Message) Params() tap.Params {
	return m.Merge(tap.DefaultParams())
}
