package messages

// Config messages for settings, scope paths, and configuration layers.
const (
	// ConfigResolveHomeFmt formats home directory resolution failures.
	ConfigResolveHomeFmt      = "resolve home dir: %w"
	ConfigResolveHostnameFmt  = "resolve hostname: %w"
	ConfigReadSettingsFmt     = "failed to read settings %s: %w"
	ConfigInvalidSettingsFmt  = "invalid settings %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized settings keys: %w"
	ConfigStrategyInvalidFmt  = "%s: migration.strategy %q is invalid (allowed: latest, all, interactive)"
	ConfigToolInvalidFmt      = "%s: tools.enabled contains unknown tool %q"
	ConfigExpandPathFmt       = "%s: cannot expand %s %q: %w"

	ConfigFragmentInvalidFmt      = "Could not parse %s layer fragment %s: %v"
	ConfigFragmentInvalidStateFmt = "%s: invalid state %q"
	ConfigFragmentInvalidFix      = "Fix the syntax error; the fragment is ignored until then."
	ConfigFragmentUnreadableFmt   = "Could not read %s layer fragment %s: %v"
	ConfigFragmentUnreadableFix   = "Check file permissions; the fragment is ignored until then."
	ConfigFragmentShadowedFmt     = "%s layer has both mcps.yaml and mcps.json; mcps.json is ignored"
	ConfigFragmentShadowedFix     = "Merge the servers into mcps.yaml and delete mcps.json."
	ConfigItemDirUnreadableFmt    = "Could not read %s layer directory %s: %v"
	ConfigItemDirUnreadableFix    = "Check that the directory exists and is readable."
	ConfigFragmentLogInvalid      = "ignoring malformed config fragment"
	ConfigFragmentLogUnreadable   = "ignoring unreadable config fragment"
	ConfigFragmentLogShadowed     = "mcps.json shadowed by mcps.yaml"
	ConfigItemDirLogUnreadable    = "ignoring unreadable item directory"
)
