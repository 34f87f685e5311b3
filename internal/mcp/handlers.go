package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/engramkit/engram/internal/engine"
	"github.com/engramkit/engram/internal/model"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	eng *engine.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine) *Handlers {
	return &Handlers{eng: eng}
}

// Request types for each tool

// IngestRequest represents the arguments for memory_ingest.
type IngestRequest struct {
	Text    string `json:"text"`
	TTLDays int    `json:"ttl_days,omitempty"`
	Source  string `json:"source,omitempty"`
}

// IDRequest covers every tool addressed by a single memory ID.
type IDRequest struct {
	ID string `json:"id"`
}

// JobStatusRequest represents the arguments for memory_job_status.
type JobStatusRequest struct {
	JobID string `json:"job_id"`
}

// SearchRequest represents the arguments for memory_search.
type SearchRequest struct {
	Query string `json:"query"`
	Path  string `json:"path,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// PathRequest covers tools scoped by an optional taxonomy prefix.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// RenameCategoryRequest represents the arguments for memory_rename_category.
type RenameCategoryRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// PruneHistoryRequest represents the arguments for memory_prune_history.
type PruneHistoryRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// LimitRequest covers tools taking only a result cap.
type LimitRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleIngest handles the memory_ingest tool call.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IngestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	job, err := h.eng.SubmitIngestion(ctx, input.Text, input.TTLDays, input.Source)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// HandleJobStatus handles the memory_job_status tool call.
func (h *Handlers) HandleJobStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[JobStatusRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	job, err := h.eng.JobStatus(ctx, input.JobID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(job)
}

// HandleSearch handles the memory_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	results, err := h.eng.Search(ctx, input.Query, input.Path, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"results": results})
}

// HandleGet handles the memory_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	m, related, err := h.eng.GetMemory(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"memory":  m,
		"related": related,
	})
}

// HandleDocument handles the memory_document tool call.
func (h *Handlers) HandleDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	sections, err := h.eng.FetchDocument(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"sections": sections})
}

// HandleHistory handles the memory_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	versions, err := h.eng.TraceHistory(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"versions": versions})
}

// HandleConfirm handles the memory_confirm tool call.
func (h *Handlers) HandleConfirm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	next, err := h.eng.ConfirmValidity(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	out := map[string]any{"confirmed": true}
	if next != nil {
		out["verify_after"] = next
	}
	return successResult(out)
}

// HandlePrimer handles the memory_primer tool call.
func (h *Handlers) HandlePrimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.eng.GetPrimer(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"content":    m.Content,
		"updated_at": m.UpdatedAt,
	})
}

// HandleExplore handles the explore_taxonomy tool call.
func (h *Handlers) HandleExplore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	tree, err := h.eng.ExploreTaxonomy(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(tree), nil
}

// HandleVerificationDue handles the memory_verification_due tool call.
func (h *Handlers) HandleVerificationDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LimitRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	due, err := h.eng.VerificationDue(ctx, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"due": due})
}

// HandleCategories handles the memory_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	counts, err := h.eng.ListCategories(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"categories": counts})
}

// HandleRenameCategory handles the memory_rename_category tool call.
func (h *Handlers) HandleRenameCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameCategoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	moved, err := h.eng.RenameCategory(ctx, input.OldPath, input.NewPath)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"moved": moved})
}

// HandleDelete handles the memory_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := h.eng.DeleteMemory(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandlePruneHistory handles the memory_prune_history tool call.
func (h *Handlers) HandlePruneHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PruneHistoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	pruned, err := h.eng.PruneHistory(ctx, input.OlderThanDays)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"pruned": pruned})
}

// HandleExport handles the memory_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	memories, err := h.eng.Export(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"memories": memories})
}

// HandleQueueStats handles the memory_queue_stats tool call.
func (h *Handlers) HandleQueueStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.eng.QueueStats(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(stats)
}

// HandleFlushJobs handles the memory_flush_jobs tool call.
func (h *Handlers) HandleFlushJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dropped, err := h.eng.FlushJobs(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"dropped": dropped})
}

// HandleDiagnostics handles the memory_diagnostics tool call.
func (h *Handlers) HandleDiagnostics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diag, err := h.eng.Diagnose(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(diag)
}

// HandleRegeneratePrimer handles the memory_regenerate_primer tool call.
func (h *Handlers) HandleRegeneratePrimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.eng.RegeneratePrimer(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"content":    m.Content,
		"updated_at": m.UpdatedAt,
	})
}

// Result helpers

// errorResult creates an MCP error result with a stable machine-readable
// code. Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	code := "INTERNAL"
	switch {
	case errors.Is(err, model.ErrNotFound):
		code = "NOT_FOUND"
	case errors.Is(err, model.ErrValidation):
		code = "INVALID_REQUEST"
	case errors.Is(err, model.ErrInvariant):
		code = "INVARIANT"
	}

	content, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
