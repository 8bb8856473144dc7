// Package assuan implements the server side of GnuPG's Assuan
// inter-process-communication protocol: a size-bounded, line-oriented
// request/response framing over a byte-duplex connection.
//
// It provides the line discipline (LineReader), the percent-encoding
// rules for incoming arguments and outgoing responses, the fixed-capacity
// response builders (ResponseLine, Ok, Data, SecretData), a composable
// command dispatch table (CommandRegistry), and the connection state
// machine that ties them together (Server).
//
// The engine speaks nothing of INQUIRE, status (S) lines, timeouts, or
// authentication; see the pinentry package for a concrete service built on
// top of it.
package assuan
