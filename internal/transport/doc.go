// Package transport provides the WebSocket handle used by the stream
// engine. A handle dials asynchronously and reports everything that
// happens to it — connect, inbound frames, disconnect — as Notices on the
// owner's channel, keyed by handle identity so the owner can discard
// notices from superseded handles.
package transport
