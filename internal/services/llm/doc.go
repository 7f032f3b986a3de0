// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) used by the generation stages.
//
// CompleteJSON sends a system and user prompt with response_format
// json_object and returns the raw content. DecodeLLMJSON tolerates code
// fences and leading prose around the JSON body.
//
// Requests are retried with exponential backoff (github.com/cenkalti/backoff)
// on HTTP 408/429/5xx, empty completions and network timeouts. A
// Retry-After header overrides the next wait. Context cancellation aborts
// retries immediately.
package llm
