package messages

// Manifest messages for the manifest state store and item toggles.
const (
	ManifestNotFound           = "manifest not found"
	ManifestNotFoundAtFmt      = "%w at %s; run 'myc init' to create one"
	ManifestReadFailedFmt      = "failed to read manifest %s: %w"
	ManifestInvalid            = "invalid manifest"
	ManifestParseFailedFmt     = "%w %s: %v"
	ManifestInvalidStateFmt    = "%w: %s.%s has unknown state %q (allowed: enabled, disabled, deleted)"
	ManifestEmptyItemNameFmt   = "%w: %s contains an item with an empty name"
	ManifestOriginMissingIDFmt = "%w: %s.%s pluginOrigin.pluginId is required"
	ManifestMarshalFailedFmt   = "failed to encode manifest: %w"
	ManifestWriteFailedFmt     = "failed to write manifest %s: %w"
	ManifestCreateDirFailedFmt = "failed to create manifest directory %s: %w"
	ManifestLockFailedFmt      = "failed to lock manifest %s: %w"
	ManifestUnknownToolLog     = "manifest references unknown tool"

	ItemNotFound           = "not found"
	ItemNotFoundFmt        = "%w: %q is not in the manifest"
	ItemNotFoundInKindFmt  = "%w: %q is not in the %s section"
	ItemAmbiguous          = "found in multiple sections, supply explicit type"
	ItemAmbiguousFmt       = "%q %w (%s)"
	ItemInvalidTool        = "invalid tool"
	ItemInvalidToolFmt     = "%w %q (known tools: %s)"
	ItemInvalidType        = "invalid type"
	ItemInvalidTypeFmt     = "%w %q (allowed: skill, mcp, hook, agent, command)"
	ItemInvalidSource      = "invalid source"
	ItemInvalidSourceEmpty = "%w: source id is empty"
	ItemInvalidSourceFmt   = "%w %q: source ids cannot contain whitespace"
	ItemNameRequired       = "item name is required"

	ItemEnabledFmt             = "Enabled %s %q"
	ItemEnabledForToolFmt      = "Enabled %s %q for %s"
	ItemAlreadyEnabledFmt      = "%s %q is already enabled"
	ItemAlreadyEnabledToolFmt  = "%s %q is already enabled for %s"
	ItemEnabledToolInactiveFmt = "Enabled %s %q for %s, but the item itself is %s; run 'myc enable %s' to activate it"
	ItemDisabledFmt            = "Disabled %s %q"
	ItemDisabledForToolFmt     = "Disabled %s %q for %s"
	ItemAlreadyDisabledFmt     = "%s %q is already disabled"
	ItemAlreadyDisabledToolFmt = "%s %q is already disabled for %s"
	ItemDeletedCannotDisable   = "%s %q is deleted; run 'myc enable %s' to restore it"
	ItemAutoRegisteredFmt      = "Registered new %s %q (source: auto)"
	ItemRemovedFmt             = "Removed %s %q (tombstoned; 'myc enable %s' restores it)"
	ItemAlreadyRemovedFmt      = "%s %q is already removed"
	ItemsRemovedBySourceFmt    = "Removed %d item(s) from source %q"
	ItemsNoneForSourceFmt      = "No items found for source %q"
)
