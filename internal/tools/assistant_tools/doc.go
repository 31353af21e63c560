// Package assistant_tools exposes the command dispatcher over MCP.
//
// assistant_process_command runs one utterance through the same flow as
// POST /api/process-command. clock_current_time reports the server clock.
package assistant_tools
