package messages

// MCP server messages.
const (
	McpServerName              = "mycelium"
	McpRunServerFailedFmt      = "failed to run MCP server: %w"
	McpRunnerNil               = "MCP server runner is nil"
	McpStatusToolName          = "mycelium_status"
	McpStatusToolDescription   = "Report the merged MCP servers with the layer that supplied each one, and item counts per manifest section."
	McpDoctorToolName          = "mycelium_doctor"
	McpDoctorToolDescription   = "Run the Mycelium health checks and return every result with a summary."
	McpStatusManifestFailedFmt = "failed to load %s manifest: %w"
	McpToolCalledLog           = "mcp tool called"
)
