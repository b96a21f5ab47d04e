// Package session owns the tracker side of the UDP session.
//
// Ownership boundary:
// - dialing the server and the handshake retry loop
// - answering server heartbeats, ping-pongs and sensor-info requests
// - packet numbering and datagram limits for outbound packets
// - streaming rotation samples from a motion source
//
// Wire knowledge stays in package protocol; this package only moves
// encoded envelopes and decides what to do with malformed ones (log, drop).
package session
