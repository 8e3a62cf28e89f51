// Package llm defines a provider-neutral interface for language model
// inference.
//
// The package provides:
//
//   - Client: the synchronous request/response interface every provider
//     adapter implements
//   - Request/Response/Message/ContentBlock: neutral wire types covering
//     text and base64 image content
//   - Middleware: hooks for cross-cutting concerns such as request logging
//   - ProviderRegistry: provider selection and credential resolution
//   - Error: a neutral error taxonomy with retryability classification
//
// Provider adapters live in the subpackages anthropic, openai and ollama.
// Callers construct requests, send them through a Client, and read the
// response text with Response.Text(); everything provider-specific stays
// behind the adapter boundary.
package llm
