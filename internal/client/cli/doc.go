// Package cli provides the interactive FlashGenius command-line client.
//
// It wires configuration, the local card-set library, the generation backend
// and the state store, then runs a REPL over them. Typical flow: generate a
// preview from text, a URL or a file, edit it, save it as a card set, and
// study saved sets with on-demand hints and explanations.
//
// Key features:
//   - Generate / edit / save card sets
//   - Browse the library with theme and tag filters
//   - Study sessions with shuffle, hints, details and write-back
//   - Card images stored in S3
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp and runREPL for details.
package cli
