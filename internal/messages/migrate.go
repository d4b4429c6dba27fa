package messages

// Migration planner, executor, and rollback messages.
const (
	MigrateStrategyInvalidFmt   = "invalid migration strategy %q (allowed: latest, all, interactive)"
	MigrateChoiceUnknownFmt     = "no %s conflict named %q"
	MigrateChoiceSourceFmt      = "%s conflict %q has no entry from %q"
	MigrateChoiceResolvedFmt    = "%s conflict %q is already resolved"
	MigrateNoRecord             = "no migration record found"
	MigrateNoRecordAtFmt        = "%w at %s"
	MigrateReadRecordFmt        = "read migration record %s: %w"
	MigrateParseRecordFmt       = "parse migration record %s: %w"
	MigrateWriteRecordFmt       = "write migration record %s: %w"
	MigrateRemoveRecordFmt      = "remove migration record %s: %v"
	MigrateReadScanFmt          = "read scan result %s: %w"
	MigrateParseScanFmt         = "parse scan result %s: %w"
	MigrateScanMissingToolFmt   = "scan result %s: toolId is required"
	MigrateLinkExistsFmt        = "%s already exists and is not a link to %s"
	MigrateLinkFailedFmt        = "link %s: %v"
	MigrateMkdirFailedFmt       = "create %s: %v"
	MigrateMCPExistsFmt         = "mcp %s: already defined with a different command"
	MigrateMCPWriteFailedFmt    = "mcp %s: %v"
	MigrateMCPFileInvalidFmt    = "%s is not a YAML mapping"
	MigrateMemoryReadFailedFmt  = "memory %s: read %s: %v"
	MigrateMemoryWriteFailedFmt = "memory %s: write %s: %v"
	MigrateMemoryExistsFmt      = "memory %s: %s already exists with different content"
	MigrateManifestFailedFmt    = "manifest: %v"
	MigrateNotSymlinkFmt        = "%s is no longer a symlink; left in place"
	MigrateRemoveFailedFmt      = "remove %s: %v"
	MigrateEntryPrefixFmt       = "%s: %s"

	MigratePlanLog        = "generated migration plan"
	MigrateConflictLog    = "migration conflict"
	MigrateSkippedLog     = "entry already migrated"
	MigrateFailedLog      = "migration entry failed"
	MigrateClearedLog     = "cleared migration"
	MigrateUnsupportedLog = "component type has no manifest section"
	MigrateDuplicateLog   = "same tool scanned the name twice; keeping the newest"
)
