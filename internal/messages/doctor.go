package messages

// Doctor messages for the doctor command and the reconciler checks.
const (
	// DoctorUse is the doctor command name.
	DoctorUse             = "doctor"
	DoctorShort           = "Check manifests, config layers, and plugin takeover state for drift"
	DoctorStrictFlagUsage = "Exit non-zero when any check warns or fails"

	DoctorHealthCheckFmt = "Checking Mycelium health in %s...\n"

	DoctorCheckNameManifestFmt = "manifest:%s"
	DoctorCheckNameLayers      = "layers"
	DoctorCheckNamePlugins     = "plugins"
	DoctorCheckNameSettings    = "plugin-settings"
	DoctorCheckSymlinkFmt      = "symlink:%s:%s"
	DoctorCheckOriginFmt       = "plugin-origin:%s:%s"
	DoctorCheckTakeoverFmt     = "takeover:%s:%s"
	DoctorCheckReleasedFmt     = "released:%s:%s"
	DoctorCheckPhantomFmt      = "phantom:%s"

	DoctorIssueOrphaned        = "orphaned"
	DoctorIssueUnreadable      = "unreadable"
	DoctorIssueMissingSymlink  = "missing-symlink"
	DoctorIssueWrongTarget     = "wrong-target"
	DoctorIssueNotSymlink      = "not-symlink"
	DoctorIssueHasSymlinkFmt   = "%s-has-symlink"
	DoctorIssueReEnabled       = "re-enabled"
	DoctorIssueNotEnabled      = "not-enabled"
	DoctorIssueComponentsDrift = "components-drift"
	DoctorIssueCacheMissing    = "cache-missing"

	DoctorManifestLoadedFmt     = "Manifest loaded: %s (%d items)"
	DoctorManifestMissingFmt    = "No manifest at %s"
	DoctorManifestInitRecommend = "Run `myc init --global` to create the global manifest."
	DoctorManifestInvalidFmt    = "Failed to load manifest: %v"
	DoctorManifestRecommend     = "Fix the YAML in the manifest file, then rerun `myc doctor`."

	DoctorLayersParsedFmt = "Config layers parsed (%d MCP servers, %d skills, %d agents, %d rules, %d commands)"

	DoctorSettingsUnreadableFmt = "Cannot read plugin settings: %v"
	DoctorSettingsRecommend     = "Fix the JSON in the tool's settings file."

	DoctorDirUnreadableFmt          = "Cannot list %s: %v"
	DoctorSymlinkOrphanedFmt        = "Orphaned symlink %s: target %s does not exist"
	DoctorSymlinkUnreadableFmt      = "Invalid symlink %s: cannot read link: %v"
	DoctorSymlinkRecommend          = "Remove the link, or run `myc plugin sync` if it belongs to a taken-over plugin."
	DoctorOriginHasSymlinkFmt       = "%s %q is %s but %s still exists"
	DoctorOriginMissingSymlinkFmt   = "%s %q is enabled but %s does not exist"
	DoctorOriginWrongTargetFmt      = "%s %q links to %s, outside %s"
	DoctorOriginNotSymlinkFmt       = "%s %q is enabled but %s is not a symlink"
	DoctorOriginNotSymlinkRecommend = "Move the file aside, then run `myc plugin sync`."
	DoctorSyncRecommend             = "Run `myc plugin sync`."

	DoctorTakeoverReEnabledFmt           = "Plugin %s is taken over but enabled again in %s"
	DoctorTakeoverReEnabledRecommendFmt  = "Run `myc plugin release %s` to hand it back, or `myc plugin takeover %s` to disable it natively again."
	DoctorReleasedNotEnabledFmt          = "Plugin %s was released but is not enabled in %s"
	DoctorReleasedNotEnabledRecommendFmt = "Enable %s in the tool, or run `myc plugin takeover %s`."
	DoctorComponentsDriftFmt             = "Plugin %s components changed: recorded [%s], found [%s]; missing [%s], extra [%s]"
	DoctorCacheMissingFmt                = "Plugin %s cache %s cannot be scanned: %v"
	DoctorCacheMissingRecommendFmt       = "Reinstall %s and run `myc plugin sync`, or run `myc plugin release %s`."
	DoctorPhantomFmt                     = "Skill %q looks like a plugin id, not a skill"
	DoctorPhantomRecommendFmt            = "Run `myc remove %s --type skill`."
	DoctorPluginsConsistentFmt           = "Plugin takeover state is consistent (%d taken over, %d plugin items)"

	DoctorStatusOKLabel        = "[OK]  "
	DoctorStatusWarnLabel      = "[WARN]"
	DoctorStatusFailLabel      = "[FAIL]"
	DoctorResultLineFmt        = "%s %-24s %s\n"
	DoctorRecommendationPrefix = "       💡 "
	DoctorRecommendationIndent = "          "

	DoctorSummaryFmt         = "\n%d ok, %d warn, %d fail\n"
	DoctorRemediationHeader  = "Suggested fixes:"
	DoctorRemediationItemFmt = "  - %s\n"
	DoctorSuccessSummary     = "All checks passed."
	DoctorIssuesSummary      = "Issues found. Doctor findings are advisory; rerun with --strict to fail on them."
	DoctorStrictFailure      = "doctor found issues"
)

// Doctor log messages.
const (
	DoctorDriftLog = "plugin component inventory drifted"
)
