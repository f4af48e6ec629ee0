// Package render turns the display text of a session into something a user
// can look at: HTML for web clients, ANSI markdown for terminals and
// compact status pills for the pending labels.
package render
