package messages

// CLI messages for user-facing commands.
const (
	// RootUse is the CLI command name.
	RootUse              = "myc"
	// RootShort is the short description for the root command.
	RootShort            = "Mycelium keeps AI coding tool configuration in sync"
	RootVersionFlag      = "Print version and exit"
	RootVerboseFlagUsage = "Log debug details to stderr"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	GlobalFlagUsage = "Apply to the global manifest instead of the project manifest"
	ToolFlagUsage   = "Restrict to one tool (claude, codex, gemini, opencode, openclaw, aider)"
	TypeFlagUsage   = "Item type when the name exists in several sections (skill, mcp, hook, agent, command)"
	DiffFlagUsage   = "Print a unified diff of the manifest change"
	NoChangeNotice  = "Manifest unchanged."

	// InitUse is the init command name.
	InitUse             = "init"
	InitShort           = "Create an empty manifest for the project or global scope"
	InitCreatedFmt      = "Created %s\n"
	InitAlreadyExistFmt = "Manifest already exists at %s\n"

	EnableUse    = "enable <name>"
	EnableShort  = "Enable an item, or allow it for one tool with --tool"
	DisableUse   = "disable <name>"
	DisableShort = "Disable an item, or exclude it from one tool with --tool"

	RemoveUse           = "remove [name]"
	RemoveShort         = "Tombstone an item, or every item from one source with --source"
	RemoveSourceFlag    = "Remove every item whose source is this id"
	RemoveArgsRequired  = "remove needs an item name or --source"
	RemoveArgsExclusive = "remove takes an item name or --source, not both"
	RemoveErrorLineFmt  = "  error: %s\n"

	LinkSummaryFmt   = "Links: %d created, %d removed\n"
	LinkErrorLineFmt = "  link error: %s\n"

	StatusUse             = "status"
	StatusShort           = "Show the effective configuration"
	StatusToolHeaderFmt   = "Effective configuration for %s\n"
	StatusMergedHeader    = "Merged configuration (all tools)\n"
	StatusSectionFmt      = "\n%s (%d):\n"
	StatusMCPLineFmt      = "  %-24s %-8s %s\n"
	StatusItemLineFmt     = "  %-24s %-8s %s\n"
	StatusManifestFmt     = "\n%s manifest: %s\n"
	StatusManifestItemFmt = "  %-8s %-24s %-9s %s\n"
	StatusWarningsFmt     = "\n%d warning(s) while loading config layers:\n"
	StatusWarningLineFmt  = "  - %s\n"
	StatusLabelMCPs       = "MCP servers"
	StatusLabelSkills     = "Skills"
	StatusLabelAgents     = "Agents"
	StatusLabelRules      = "Rules"
	StatusLabelCommands   = "Commands"
	StatusNone            = "  (none)\n"

	MigrateUse             = "migrate"
	MigrateShort           = "Import skills, MCP servers, and memory from tool scan results"
	MigratePlanUse         = "plan"
	MigratePlanShort       = "Show what a migration would import"
	MigrateApplyUse        = "apply"
	MigrateApplyShort      = "Apply a migration and record it for rollback"
	MigrateClearUse        = "clear"
	MigrateClearShort      = "Undo every recorded migration"
	MigrateStrategyFlag    = "Conflict strategy: latest, all, or interactive (default from config.toml)"
	MigrateScanFlag        = "Scan result JSON file (repeatable)"
	MigrateJSONFlag        = "Print the plan as JSON"
	MigrateScanRequired    = "at least one --scan file is required"
	MigratePlanHeaderFmt   = "Migration plan (strategy: %s)\n"
	MigratePlanCountsFmt   = "  %d skills, %d MCP servers, %d memory files, %d components\n"
	MigrateConflictFmt     = "  conflict %s %q: %s\n"
	MigrateUnresolvedFmt   = "%d conflict(s) need a choice; rerun with --strategy interactive or --strategy latest\n"
	MigrateConfirmPrompt   = "Apply this migration?"
	MigrateAborted         = "Migration not applied."
	MigrateAppliedFmt      = "Imported %d skills, %d MCP servers, %d memory files, %d components\n"
	MigrateClearedFmt      = "Removed %d skill links, %d component links, %d MCP servers, %d memory files, %d manifest entries\n"
	MigrateErrorLineFmt    = "  error: %s\n"
	MigratePartialFailed   = "migration finished with errors"
	MigrateClearFailed     = "clear finished with errors; rerun `myc migrate clear` to retry"
	MigrateResolvedNone    = "unresolved"
	MigrateResolvedFromFmt = "kept %s"
	MigrateResolvedAll     = "all kept"

	PluginUse             = "plugin"
	PluginShort           = "Manage third-party plugins taken over by Mycelium"
	PluginListUse         = "list"
	PluginListShort       = "List installed plugins and their takeover state"
	PluginTakeoverUse     = "takeover <plugin@marketplace>"
	PluginTakeoverShort   = "Disable a plugin natively and manage its components as items"
	PluginReleaseUse      = "release <plugin@marketplace>"
	PluginReleaseShort    = "Hand a taken-over plugin back to the tool"
	PluginSyncUse         = "sync"
	PluginSyncShort       = "Rescan taken-over plugins and reconcile their symlinks"
	PluginListNone        = "No plugins installed."
	PluginListLineFmt     = "%-36s %-10s %-10s %-12s %d components\n"
	PluginTakenOverLabel  = "taken-over"
	PluginNativeLabel     = "native"
	PluginEnabledLabel    = "enabled"
	PluginDisabledLabel   = "disabled"
	PluginUnsetLabel      = "unset"
	PluginOpSummaryFmt    = "%s: %d registered, %d linked, %d unlinked\n"
	PluginOpErrorLineFmt  = "  error: %s\n"
	PluginOpFailed        = "plugin operation finished with errors"
	PluginTakeoverDoneFmt = "Took over %s"
	PluginReleaseDoneFmt  = "Released %s"
	PluginSyncDone        = "Synced taken-over plugins"

	// McpUse is the mcp command name.
	McpUse   = "mcp"
	McpShort = "Run the Mycelium MCP server over stdio"
)

// CLI environment messages.
const (
	NoProjectScope    = "no project found here; run inside a project or pass --global"
	ToolNotManagedLog = "tool is not in tools.enabled"
	LogCommandAttr    = "command"
)
