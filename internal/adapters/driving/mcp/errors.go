// Package mcp provides an MCP (Model Context Protocol) server adapter for Ansa.
// It enables AI assistants like Claude to ask grounded questions against the
// local document index.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
