// Package llm wraps the OpenAI chat completions API with function calling.
//
// The Client issues one bounded request per call and reports any transport
// failure or empty response as ErrUpstream. It never retries.
package llm
