package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Production tools form the everyday agent surface;
// admin tools are registered only when the server runs with --admin.

var ingestToolDef = mcp.NewTool("memory_ingest",
	mcp.WithDescription("Stage raw text for background ingestion into memory. Returns a job ID immediately; sections are extracted, categorized, deduplicated, and linked asynchronously."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Raw text to remember.")),
	mcp.WithNumber("ttl_days", mcp.Description("Optional lifetime in days; the memory is archived after this.")),
	mcp.WithString("source", mcp.Description("Optional provenance label, e.g. a session or document name.")),
)

var jobStatusToolDef = mcp.NewTool("memory_job_status",
	mcp.WithDescription("Check the status of a staged ingestion job."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Job ID returned by memory_ingest.")),
)

var searchToolDef = mcp.NewTool("memory_search",
	mcp.WithDescription("Hybrid semantic + keyword search over active memories, with surrounding document context."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query.")),
	mcp.WithString("path", mcp.Description("Optional taxonomy prefix to scope the search, e.g. 'projects'.")),
	mcp.WithNumber("limit", mcp.Description("Maximum results to return.")),
)

var getToolDef = mcp.NewTool("memory_get",
	mcp.WithDescription("Fetch one memory by ID, with its related-memory links."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID.")),
)

var documentToolDef = mcp.NewTool("memory_document",
	mcp.WithDescription("Reconstruct the full document containing a memory by walking its section chain."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Any memory ID inside the document.")),
)

var historyToolDef = mcp.NewTool("memory_history",
	mcp.WithDescription("Trace a memory's version history, oldest first."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Any version's memory ID.")),
)

var confirmToolDef = mcp.NewTool("memory_confirm",
	mcp.WithDescription("Confirm a memory is still accurate, pushing its verification deadline forward."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID to confirm.")),
)

var primerToolDef = mcp.NewTool("memory_primer",
	mcp.WithDescription("Read the current system primer: user context plus a map of the knowledge base. Intended for session start."),
)

var exploreToolDef = mcp.NewTool("explore_taxonomy",
	mcp.WithDescription("Render the category tree under a path, with memory counts."),
	mcp.WithString("path", mcp.Description("Taxonomy prefix to explore; empty for the whole tree.")),
)

var verificationDueToolDef = mcp.NewTool("memory_verification_due",
	mcp.WithDescription("List memories overdue for re-confirmation with the user."),
	mcp.WithNumber("limit", mcp.Description("Maximum memories to return.")),
)

// Admin tools

var categoriesToolDef = mcp.NewTool("memory_categories",
	mcp.WithDescription("List active category paths with memory counts."),
	mcp.WithString("path", mcp.Description("Optional prefix filter.")),
)

var renameCategoryToolDef = mcp.NewTool("memory_rename_category",
	mcp.WithDescription("Atomically move a taxonomy subtree to a new prefix."),
	mcp.WithString("old_path", mcp.Required(), mcp.Description("Existing prefix to move.")),
	mcp.WithString("new_path", mcp.Required(), mcp.Description("Destination prefix.")),
)

var deleteToolDef = mcp.NewTool("memory_delete",
	mcp.WithDescription("Delete a memory and all its edges."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID to delete.")),
)

var pruneHistoryToolDef = mcp.NewTool("memory_prune_history",
	mcp.WithDescription("Drop superseded versions older than a cutoff."),
	mcp.WithNumber("older_than_days", mcp.Required(), mcp.Description("Age in days beyond which superseded versions are dropped.")),
)

var exportToolDef = mcp.NewTool("memory_export",
	mcp.WithDescription("Export active memories as JSON."),
	mcp.WithString("path", mcp.Description("Optional taxonomy prefix to scope the export.")),
)

var queueStatsToolDef = mcp.NewTool("memory_queue_stats",
	mcp.WithDescription("Report staging-queue health: per-status counts, oldest pending age, recent failures."),
)

var flushJobsToolDef = mcp.NewTool("memory_flush_jobs",
	mcp.WithDescription("Drop every staged job that is not currently processing."),
)

var diagnosticsToolDef = mcp.NewTool("memory_diagnostics",
	mcp.WithDescription("Point-in-time health snapshot: queue, taxonomy size, primer freshness, verification backlog."),
)

var regeneratePrimerToolDef = mcp.NewTool("memory_regenerate_primer",
	mcp.WithDescription("Force primer synthesis right now, bypassing the debounce."),
)
