// Package assistant implements the command dispatcher.
//
// A command travels through a fixed sequence of states:
//
//	RECEIVED -> INTENT_REQUESTED -> DIRECT_REPLY | FUNCTION_DISPATCHED
//	         -> FINAL_REQUESTED (function calls only) -> SYNTHESIS (optional) -> RESPONDED
//
// The first model call decides whether a function is needed. When one is,
// the function result is handed back to the model in a second call that
// phrases the final answer for speech. Any failure ends the command, except
// a speech synthesis failure which downgrades the response to text only.
//
// External collaborators are injected through Deps so tests can replace the
// model, the calendar and the speech provider.
package assistant
