// Package common provides shared utilities for MCP tool implementations.
// It contains the instrumentation wrapper and argument helpers used by
// every tool package.
package common
