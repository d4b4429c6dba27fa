package messages

// Interactive conflict resolution messages.
const (
	PromptRequiresTerminal    = "interactive conflict resolution requires a terminal; rerun with --strategy latest or --strategy all"
	PromptCancelled           = "conflict resolution cancelled"
	PromptConflictTitleFmt    = "%s %q exists in %d tools (%d of %d)"
	PromptSkipOption          = "Skip (import none)"
	PromptEntryFmt            = "%s"
	PromptEntryUpdatedFmt     = "%s (updated %s)"
	PromptEntryCommandFmt     = "%s: %s"
	PromptEntryCommandTimeFmt = "%s: %s (updated %s)"
	PromptTimeLayout          = "2006-01-02 15:04"
	PromptSkippedLog          = "conflict left unresolved"
	PromptChosenLog           = "conflict resolved interactively"
)
