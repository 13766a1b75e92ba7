package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// SearchInput is the input schema for the kb_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar knowledge-base chunks for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5, max 50)"`
}

// SearchOutput is the output schema for the kb_search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput is one matching chunk.
type ChunkOutput struct {
	DocumentID string  `json:"doc_id"`
	ChunkID    string  `json:"chunk_id"`
	FileName   string  `json:"file_name,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// StatusInput is the (empty) input schema for kb_status and kb_trigger.
type StatusInput struct{}

// StatusOutput is the output schema for the kb_status tool.
type StatusOutput struct {
	FolderID        string `json:"folder_id"`
	HasChangeToken  bool   `json:"has_change_token"`
	State           string `json:"state"`
	IntervalSeconds int    `json:"polling_interval_seconds"`
	ChunkCount      int    `json:"chunk_count"`
	LastCycle       string `json:"last_cycle,omitempty"`
}

// TriggerOutput is the output schema for the kb_trigger tool.
type TriggerOutput struct {
	Triggered bool `json:"triggered"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_search",
		Description: "Find knowledge-base chunks most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_status",
		Description: "Report the watched folder, poller state and chunk count",
	}, s.handleStatus)

	if s.ports.AllowTrigger {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "kb_trigger",
			Description: "Run a poll cycle now instead of waiting for the interval",
		}, s.handleTrigger)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.KB.Search(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]ChunkOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = ChunkOutput{
			DocumentID: h.Chunk.DocumentID,
			ChunkID:    h.Chunk.ChunkID,
			FileName:   h.Chunk.Metadata.FileName,
			Score:      h.Score,
			Content:    h.Chunk.Content,
		}
	}
	return nil, output, nil
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.KB.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, statusOutput(status), nil
}

func (s *Server) handleTrigger(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, TriggerOutput, error) {
	s.ports.KB.Trigger()
	return nil, TriggerOutput{Triggered: true}, nil
}

func statusOutput(status *domain.Status) StatusOutput {
	out := StatusOutput{
		FolderID:        status.FolderID,
		HasChangeToken:  status.HasChangeToken,
		State:           string(status.State),
		IntervalSeconds: status.IntervalSeconds,
		ChunkCount:      status.ChunkCount,
	}
	if len(status.RecentCycles) > 0 {
		c := status.RecentCycles[0]
		outcome := "ok"
		if !c.Success {
			outcome = "failed: " + c.Error
		}
		out.LastCycle = fmt.Sprintf("%s %s at %s", c.Mode, outcome, c.EndedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return out
}
