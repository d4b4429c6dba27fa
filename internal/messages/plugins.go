package messages

// Plugin scanner, registry, and takeover messages.
const (
	PluginIDInvalidFmt        = "invalid plugin id %q (expected plugin@marketplace)"
	PluginNotFound            = "plugin not found"
	PluginNotFoundFmt         = "%w: %s in %s"
	PluginNotTakenOver        = "plugin is not taken over"
	PluginNotTakenOverFmt     = "%w: %s"
	PluginReadCacheFmt        = "read plugin cache %s: %w"
	PluginScanFailedFmt       = "scan %s: %w"
	PluginSyncScanFailedFmt   = "%s: %v"
	PluginFrontMatterMissing  = "missing YAML frontmatter"
	PluginFrontMatterOpen     = "unterminated YAML frontmatter"
	PluginFrontMatterMapping  = "frontmatter must be a YAML mapping"
	PluginFrontMatterFieldFmt = "frontmatter field %q must be a string scalar"

	PluginSettingsReadFmt    = "read plugin settings %s: %w"
	PluginSettingsInvalidFmt = "plugin settings %s is not valid JSON"
	PluginSettingsWriteFmt   = "write plugin settings %s: %w"

	PluginLinkCreateFmt     = "%s: link %s: %v"
	PluginLinkRemoveFmt     = "%s: unlink %s: %v"
	PluginLinkOccupiedFmt   = "%s: %s exists and is not a link into %s"
	PluginLinkInspectFmt    = "%s: inspect %s: %v"
	PluginOwnedByOtherFmt   = "%s: already provided by plugin %s"
	PluginManifestFailedFmt = "manifest: %v"
	PluginSettingsFailedFmt = "settings: %v"
	PluginComponentGoneFmt  = "%s: component no longer exists in %s"

	PluginTakeoverLog    = "took over plugin"
	PluginReleaseLog     = "released plugin"
	PluginSyncLog        = "synced plugin"
	PluginLinkedLog      = "linked component"
	PluginUnlinkedLog    = "unlinked component"
	PluginOpFailedLog    = "plugin operation step failed"
	PluginSkipEntryLog   = "skipping unreadable plugin entry"
	PluginFrontMatterLog = "ignoring unreadable frontmatter"
)
