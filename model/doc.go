// Package model defines the provider‑agnostic abstractions and concrete
// helpers for calling the language model that produces model turns.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Feed core.Turn history in and return core.Turn replies, so results can be
//     appended to a session unchanged
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Gemini, OpenAI, Anthropic) live in sub-packages and implement the
// Model interface so the runner stays decoupled from vendor SDKs.
package model
