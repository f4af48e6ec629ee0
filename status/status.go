// Package status derives short progress labels ("Searching flights") from the
// function calls a model turn is waiting on.
package status

import (
	"maps"
	"slices"
	"strings"

	"github.com/hupe1980/tripsession/core"
)

const (
	// Fallback labels any function call missing from the table.
	Fallback = "Magic!"
	// Separator joins labels in the single-string form.
	Separator = ","
)

var defaultTable = map[string]string{
	"flights_between":          "Searching flights",
	"flight_booking_link":      "Getting flight booking link",
	"flight_booking_details":   "Reading flight details",
	"trains_between":           "Searching trains",
	"train_seats_available":    "Checking seats available",
	"get_about_place":          "Finding best scenery",
	"get_hotel_by_coordinates": "Searching hotels",
	"get_hotel_details":        "Getting hotel booking link",
	"get_room_availability":    "Checking available rooms",
	"get_hotel_description":    "Reading about a hotel",
}

// DefaultLabeler covers the travel planner tool set.
var DefaultLabeler = NewLabeler(defaultTable, Fallback)

// Label returns the default status phrase for a function name.
func Label(name string) string { return DefaultLabeler.Label(name) }

// Labeler maps function names to status phrases. It is immutable after
// construction and safe for concurrent use.
type Labeler struct {
	table    map[string]string
	fallback string
}

// NewLabeler copies table; later changes to the argument have no effect.
// An empty fallback is replaced by Fallback.
func NewLabeler(table map[string]string, fallback string) *Labeler {
	if fallback == "" {
		fallback = Fallback
	}
	return &Labeler{table: maps.Clone(table), fallback: fallback}
}

// Label returns the phrase for name, or the fallback for unknown names.
func (l *Labeler) Label(name string) string {
	if label, ok := l.table[name]; ok {
		return label
	}
	return l.fallback
}

// ForTurn returns the labels of every function call in turn, deduplicated
// and sorted lexicographically. The result does not depend on call order or
// repetition.
func (l *Labeler) ForTurn(turn core.Turn) []string {
	calls := turn.FunctionCalls()
	labels := make([]string, 0, len(calls))
	for _, c := range calls {
		labels = append(labels, l.Label(c.Name))
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

// Pending returns the labels for the most recent turn of s.
// It fails with core.ErrEmptySession when s has no turns.
func (l *Labeler) Pending(s *core.Session) ([]string, error) {
	last, err := s.LastTurn()
	if err != nil {
		return nil, err
	}
	return l.ForTurn(last), nil
}

// PendingJoined is Pending with the labels joined by Separator.
func (l *Labeler) PendingJoined(s *core.Session) (string, error) {
	labels, err := l.Pending(s)
	if err != nil {
		return "", err
	}
	return strings.Join(labels, Separator), nil
}
