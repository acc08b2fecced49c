// Package session holds the per-user route-planning conversation state and
// the state transition table.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

// State is a conversation step.
type State int

const (
	StateAwaitingStart State = iota + 1
	StateAwaitingEnd
	StateAwaitingStopsOrConfirm
	StateAwaitingStops
	StateAwaitingDays
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateAwaitingEnd:
		return "awaiting_end"
	case StateAwaitingStopsOrConfirm:
		return "awaiting_stops_or_confirm"
	case StateAwaitingStops:
		return "awaiting_stops"
	case StateAwaitingDays:
		return "awaiting_days"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Session is one user's route being planned.
type Session struct {
	ID     string
	UserID int64
	ChatID int64
	State  State

	Start *weather.Location
	End   *weather.Location
	Stops []weather.Location
	Days  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New starts a session in StateAwaitingStart.
func New(userID, chatID int64, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		State:     StateAwaitingStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.Start != nil {
		start := *s.Start
		cpy.Start = &start
	}
	if s.End != nil {
		end := *s.End
		cpy.End = &end
	}
	if s.Stops != nil {
		cpy.Stops = append([]weather.Location(nil), s.Stops...)
	}
	return &cpy
}

// Route returns start, stops and end in travel order. It is nil unless both
// start and end are set.
func (s *Session) Route() []weather.Location {
	if s.Start == nil || s.End == nil {
		return nil
	}
	route := make([]weather.Location, 0, len(s.Stops)+2)
	route = append(route, *s.Start)
	route = append(route, s.Stops...)
	route = append(route, *s.End)
	return route
}
