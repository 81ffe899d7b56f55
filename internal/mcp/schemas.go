package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// archiveSessionTool returns the tool definition for archive_session
func archiveSessionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "archive_session",
		Description: "Extract and persist memorable fragments from a session transcript",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"transcript_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the JSONL session transcript. A missing file archives nothing and is not an error",
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project to attribute the fragments to. Omit for global memories",
				},
			},
			Required: []string{"transcript_path"},
		},
	}
}

// searchMemoryTool returns the tool definition for search_memory
func searchMemoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_memory",
		Description: "Search archived memories with hybrid semantic and keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Scope results to this project plus global memories",
				},
				"all_projects": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, search every project regardless of project_id",
					"default":     false,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
			},
			Required: []string{"query"},
		},
	}
}

// saveMemoryTool returns the tool definition for save_memory
func saveMemoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_memory",
		Description: "Archive a piece of text directly, outside any session transcript",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Text to remember. Goes through the same filtering and dedup as session content",
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project to attribute the memory to. Omit for a global memory",
				},
			},
			Required: []string{"content"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report store statistics and embedding provider health",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "If set, include statistics scoped to this project",
				},
			},
		},
	}
}
