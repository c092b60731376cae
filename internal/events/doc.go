// Package events defines the typed events delivered over the streaming
// connections and the parser that decodes raw WebSocket payloads into them.
//
// The taxonomy is closed: every inbound frame becomes exactly one of the
// Event implementations below or a parse error. Parsing never panics;
// malformed payloads are reported as errors and dropped by the caller.
package events
