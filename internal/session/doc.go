// Package session owns the learning session status lattice and its SQLite
// persistence.
//
// Status values are phase-tagged (initial, acquisition, generation,
// terminal) and every write is checked against an explicit transition
// table. The store refuses any write once a session is terminal, which is
// what keeps an error status final even if a caller misbehaves.
package session
