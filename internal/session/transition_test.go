package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		outcome Outcome
		want    State
		ok      bool
	}{
		{"start resolved", StateAwaitingStart, OutcomeResolved, StateAwaitingEnd, true},
		{"start rejected", StateAwaitingStart, OutcomeRejected, StateAwaitingStart, true},
		{"end resolved", StateAwaitingEnd, OutcomeResolved, StateAwaitingStopsOrConfirm, true},
		{"end rejected", StateAwaitingEnd, OutcomeRejected, StateAwaitingEnd, true},
		{"confirm yes", StateAwaitingStopsOrConfirm, OutcomeYes, StateAwaitingStops, true},
		{"confirm no", StateAwaitingStopsOrConfirm, OutcomeNo, StateAwaitingDays, true},
		{"stops resolved", StateAwaitingStops, OutcomeResolved, StateAwaitingStopsOrConfirm, true},
		{"stops rejected", StateAwaitingStops, OutcomeRejected, StateAwaitingStops, true},
		{"days chosen", StateAwaitingDays, OutcomeDaysChosen, StateTerminal, true},

		{"text while confirming", StateAwaitingStopsOrConfirm, OutcomeResolved, StateAwaitingStopsOrConfirm, false},
		{"yes while awaiting start", StateAwaitingStart, OutcomeYes, StateAwaitingStart, false},
		{"days while awaiting stops", StateAwaitingStops, OutcomeDaysChosen, StateAwaitingStops, false},
		{"anything in terminal", StateTerminal, OutcomeResolved, StateTerminal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Transition(tt.state, tt.outcome)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_Route(t *testing.T) {
	s := New(1, 2, time.Now())
	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.Route())

	start := weather.NewLocation("Moscow", 55.75, 37.62, "a")
	end := weather.NewLocation("Paris", 48.85, 2.35, "b")
	s.Start = &start
	assert.Nil(t, s.Route())

	s.End = &end
	s.Stops = []weather.Location{
		weather.NewLocation("Tula", 54.2, 37.6, "c"),
		weather.NewLocation("Orel", 52.97, 36.07, "d"),
	}

	var names []string
	for _, loc := range s.Route() {
		names = append(names, loc.Name)
	}
	assert.Equal(t, []string{"Moscow", "Tula", "Orel", "Paris"}, names)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_days", StateAwaitingDays.String())
	assert.Equal(t, "unknown", State(0).String())
	assert.Equal(t, "days_chosen", OutcomeDaysChosen.String())
}
