package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/engramdb/engram/internal/archiver"
	"github.com/engramdb/engram/internal/searcher"
	"github.com/engramdb/engram/internal/store"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeArchiveInProgress = -32001 // Another archive operation is already running
	ErrorCodeEmptyQuery        = -32002 // Query parameter is empty
)

// handleArchiveSession handles the archive_session tool invocation
func (s *Server) handleArchiveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["transcript_path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "transcript_path parameter is required", map[string]interface{}{
			"param":  "transcript_path",
			"reason": "missing or empty",
		})
	}

	projectID := optionalString(args, "project_id")

	start := time.Now()
	result, err := s.archiver.ArchiveSession(ctx, path, projectID, func(p archiver.Progress) {
		if p.Stage == archiver.StageEmbedding && p.Total > 0 {
			log.Printf("archive: embedding %d/%d", p.Completed, p.Total)
		}
	})
	if errors.Is(err, archiver.ErrArchiveInProgress) {
		return nil, newMCPError(ErrorCodeArchiveInProgress, "an archive operation is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "archive failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if result.Archived > 0 {
		s.searcher.InvalidateCache()
	}

	response := map[string]interface{}{
		"archived":    result.Archived,
		"skipped":     result.Skipped,
		"duplicates":  result.Duplicates,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchMemory handles the search_memory tool invocation
func (s *Server) handleSearchMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.SearchLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := getStringDefault(args, "mode", string(searcher.ModeHybrid))
	switch searcher.Mode(mode) {
	case searcher.ModeHybrid, searcher.ModeVector, searcher.ModeKeyword:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Query:       query,
		Limit:       limit,
		Mode:        searcher.Mode(mode),
		ProjectID:   optionalString(args, "project_id"),
		AllProjects: getBoolDefault(args, "all_projects", false),
		UseCache:    true,
		CacheTTL:    s.cfg.CacheTTL(),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		item := map[string]interface{}{
			"id":        r.ID,
			"score":     r.Score,
			"content":   r.Content,
			"source":    string(r.Source),
			"timestamp": r.Timestamp.Format(time.RFC3339),
		}
		if r.ProjectID != nil {
			item["project_id"] = *r.ProjectID
		}
		results = append(results, item)
	}

	response := map[string]interface{}{
		"results":      results,
		"total":        len(results),
		"vector_hits":  resp.VectorHits,
		"keyword_hits": resp.KeywordHits,
		"duration_ms":  resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSaveMemory handles the save_memory tool invocation
func (s *Server) handleSaveMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	result, err := s.archiver.ArchiveContent(ctx, content, optionalString(args, "project_id"))
	if errors.Is(err, archiver.ErrArchiveInProgress) {
		return nil, newMCPError(ErrorCodeArchiveInProgress, "an archive operation is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "save failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if result.Archived > 0 {
		s.searcher.InvalidateCache()
	}

	response := map[string]interface{}{
		"archived":   result.Archived,
		"skipped":    result.Skipped,
		"duplicates": result.Duplicates,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read store statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	report := s.handle.Report()
	embedderStatus := map[string]interface{}{
		"provider": report.Provider,
		"model":    report.Model,
		"state":    s.handle.State().String(),
	}
	if report.Err != nil {
		embedderStatus["error"] = report.Err.Error()
	}

	response := map[string]interface{}{
		"fragments":     stats.FragmentCount,
		"projects":      stats.ProjectCount,
		"sessions":      stats.SessionCount,
		"db_size_bytes": stats.DBSizeBytes,
		"embedder":      embedderStatus,
		"build": map[string]interface{}{
			"mode":             store.BuildMode,
			"vector_extension": store.VectorExtensionAvailable,
		},
	}
	if stats.FragmentCount > 0 {
		response["oldest_timestamp"] = stats.OldestTimestamp.Format(time.RFC3339)
		response["newest_timestamp"] = stats.NewestTimestamp.Format(time.RFC3339)
	}

	if projectID := optionalString(args, "project_id"); projectID != nil {
		ps, err := s.store.ProjectStats(ctx, *projectID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to read project statistics", map[string]interface{}{
				"error": err.Error(),
			})
		}
		project := map[string]interface{}{
			"project_id": ps.ProjectID,
			"fragments":  ps.FragmentCount,
			"sessions":   ps.SessionCount,
		}
		if ps.FragmentCount > 0 {
			project["last_archive"] = ps.LastArchiveTimestamp.Format(time.RFC3339)
		}
		response["project"] = project
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// optionalString extracts a non-empty string parameter, or nil
func optionalString(args map[string]interface{}, key string) *string {
	if val, ok := args[key].(string); ok && val != "" {
		return &val
	}
	return nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
