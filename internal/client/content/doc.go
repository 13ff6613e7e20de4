// Package content turns staged generation input into the payload sent to
// the generation service: it detects and validates file types, fetches the
// readable text of web pages and caps every text path at a fixed number of
// characters.
package content
