// Package mcp exposes the engine over the Model Context Protocol via stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/engramkit/engram/internal/engine"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
	admin   bool
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"memory_ingest": {
		def:     ingestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleIngest },
	},
	"memory_job_status": {
		def:     jobStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleJobStatus },
	},
	"memory_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"memory_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"memory_document": {
		def:     documentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocument },
	},
	"memory_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"memory_confirm": {
		def:     confirmToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConfirm },
	},
	"memory_primer": {
		def:     primerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrimer },
	},
	"explore_taxonomy": {
		def:     exploreToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExplore },
	},
	"memory_verification_due": {
		def:     verificationDueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVerificationDue },
	},

	"memory_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
		admin:   true,
	},
	"memory_rename_category": {
		def:     renameCategoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRenameCategory },
		admin:   true,
	},
	"memory_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
		admin:   true,
	},
	"memory_prune_history": {
		def:     pruneHistoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePruneHistory },
		admin:   true,
	},
	"memory_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
		admin:   true,
	},
	"memory_queue_stats": {
		def:     queueStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueueStats },
		admin:   true,
	},
	"memory_flush_jobs": {
		def:     flushJobsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFlushJobs },
		admin:   true,
	},
	"memory_diagnostics": {
		def:     diagnosticsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDiagnostics },
		admin:   true,
	},
	"memory_regenerate_primer": {
		def:     regeneratePrimerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRegeneratePrimer },
		admin:   true,
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with memory tools registered. Admin tools
// are included only when admin is set.
func NewServer(eng *engine.Engine, version string, admin bool) *server.MCPServer {
	s := server.NewMCPServer(
		"engram",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(eng)
	for _, entry := range toolRegistry {
		if entry.admin && !admin {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves MCP over stdio until the client disconnects.
func Run(eng *engine.Engine, version string, admin bool) error {
	return server.ServeStdio(NewServer(eng, version, admin))
}
