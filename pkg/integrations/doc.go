// Package integrations provides HTTP clients for language model provider APIs.
//
// # Overview
//
// Each provider has its own subpackage implementing [llm.Model]:
//
//   - [anthropic]: Anthropic Messages API
//
// # Shared Infrastructure
//
// The [Client] type provides the JSON-over-HTTP plumbing all provider
// clients share: default headers, timeouts, observability HTTP hooks and a
// mapping from HTTP status codes to coded errors (RATE_LIMITED,
// UNAUTHORIZED, TIMEOUT, NETWORK_ERROR). Requests are never retried; a
// failed call fails the generation it belongs to.
//
// # Adding a New Provider
//
//  1. Create a subpackage: pkg/integrations/<provider>/
//  2. Define request/response structs matching the API schema
//  3. Implement llm.Model on a Client built on [NewClient]
//  4. Wire it into the CLI model factory
//
// [llm.Model]: github.com/matzehuels/layoutgen/pkg/llm.Model
// [anthropic]: github.com/matzehuels/layoutgen/pkg/integrations/anthropic
package integrations
