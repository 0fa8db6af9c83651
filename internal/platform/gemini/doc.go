// Package gemini provides an implementation of the generation.ContentGenerator
// interface backed by Google's Gemini API.
//
// This package is an infrastructure adapter: it translates a plain prompt into
// a GenerateContent request and maps the reply back to text, without exposing
// the genai client to the rest of the application.
//
// Key behaviours:
//
// 1. Request defaults:
//   - Temperature, top-p and output token limits come from config.LLMConfig
//   - Per-call generation.Options override the token limit and temperature
//
// 2. Error Handling:
//   - Each attempt runs under its own request timeout
//   - Rate limits, server errors and timeouts are retried with exponential
//     backoff and jitter
//   - Safety blocks and client errors are returned immediately
//
// An empty reply is not an error; callers decide how to treat missing content.
package gemini
