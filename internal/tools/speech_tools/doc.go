// Package speech_tools provides MCP tools for the ElevenLabs voice catalogue
// and text-to-speech synthesis.
package speech_tools
