// Package mcp exposes the memory store over the Model Context Protocol.
//
// The server speaks MCP over stdio and registers four tools:
//
//   - archive_session: run the archive pipeline over a transcript file
//   - search_memory: hybrid retrieval over archived fragments
//   - save_memory: archive free-form text under the manual session
//   - get_status: store statistics and embedding provider health
//
// All diagnostics go to stderr via the standard logger; stdout carries only
// protocol frames.
//
// Tool failures are reported as MCPError values with JSON-RPC style codes:
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  archive already in progress
//	-32002  empty query
//
// Startup never probes the embedding provider. A server configured against
// an unreachable Ollama still serves keyword search and status; archive calls
// fail with a provider error until the server becomes reachable.
package mcp
