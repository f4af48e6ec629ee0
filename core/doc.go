// Package core provides the conversational session store shared by every
// other package in tripsession:
//
//   - Blocks (Text, Thought, FunctionCall, FunctionResponse) forming a closed variant
//   - Turns (a role plus ordered blocks) and text extraction
//   - Session, a FIFO-windowed turn history with free-text and structured ingestion
//   - The JSON wire codec (Gemini "Content" shape) and the chat protocol check
//   - The SessionStore persistence contract
//
// Malformed structured input never aborts a conversation. A rejected ask
// payload is fed back to the model as user text and a rejected replayed turn
// is recorded as a diagnostic model turn. Only ReplyStructured and the read
// operations on an empty session report errors to the caller.
//
// The package performs no I/O and knows nothing about model transports, tool
// implementations or rendering.
package core
