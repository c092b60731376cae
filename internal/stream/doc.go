// Package stream implements the managed streaming connections to the
// trading venue.
//
// One engine (Conn) covers both connection kinds: the authenticated
// user connection (fixed channel, periodic credential refresh) and the
// market-data connection (caller-chosen channels, no credentials). The
// engine owns all mutable connection state from a single run goroutine;
// public operations, transport notices, and timers are serialized into
// that loop. Subscriptions survive reconnects: the locally-held registry
// is resent in full whenever a connection is established.
package stream
