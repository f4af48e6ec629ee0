// Package session houses concrete implementations of core.SessionStore.
// The interface itself lives in the core package so that the façade and the
// runner never depend on a concrete backend.
//
// Two backends are provided: InMemoryStore for tests and short-lived
// processes, and SQLiteStore for durable local storage. Both persist only the
// canonical form produced by core.Session.Serialize.
package session
