// Package client contains client-side building blocks for FlashGenius.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract for the generation service (see the
//     Client interface): GenerateCards, GenerateHint, GenerateDetails and
//     FetchURLContent.
//  2. HTTPClient, which talks JSON to the FlashGenius API, signs requests
//     with short-lived HS256 bearer tokens when a secret is configured, and
//     maps HTTP failures to sentinel errors.
//  3. OpenAIClient, which implements the same contract directly on top of
//     the OpenAI chat completions API and reads web pages through a reader
//     proxy.
//  4. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     for the CLI, wiring an SQLite database and applying embedded goose
//     migrations.
//
// # Error Handling
//
// Every transport failure matches common.ErrTransport. The more specific
// conditions ErrUnavailable and ErrUnauthorized can be matched with
// errors.Is as well.
//
// Concurrency & Contexts
//
// Both implementations are safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
