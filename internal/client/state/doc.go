// Package state holds the client's in-memory application state: the
// generation session, the mirror of the card-set library and the study
// session, composed into a Store that publishes snapshots to subscribers.
//
// Controllers never share mutable data with callers. Every snapshot returned
// by a State method may be kept and read without locking.
package state
