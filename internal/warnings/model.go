package warnings

import "fmt"

// Warning codes.
const (
	CodeConfigFragmentInvalid    = "CONFIG_FRAGMENT_INVALID"
	CodeConfigFragmentUnreadable = "CONFIG_FRAGMENT_UNREADABLE"
	CodeConfigFragmentShadowed   = "CONFIG_FRAGMENT_SHADOWED"
	CodeConfigItemDirUnreadable  = "CONFIG_ITEM_DIR_UNREADABLE"
)

// Source labels where a warning originates.
const (
	SourceInternal           = "internal"
	SourceExternalDependency = "external dependency"
)

// Severity labels whether a warning should be considered critical.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Warning represents a non-fatal problem found while computing configuration.
type Warning struct {
	Code     string
	Subject  string
	Message  string
	Fix      string
	Details  []string
	Source   string
	Severity string
}

func (w Warning) String() string {
	s := "WARNING " + w.Code + ": " + w.Message + "\n"
	s += fmt.Sprintf("  source: %s\n", w.sourceOrDefault())
	s += fmt.Sprintf("  severity: %s\n", w.severityOrDefault())
	s += "  subject: " + w.Subject + "\n"
	s += "  fix: " + w.Fix
	for _, d := range w.Details {
		s += "\n  details: " + d
	}
	return s
}

func (w Warning) sourceOrDefault() string {
	if w.Source == "" {
		return SourceInternal
	}
	return w.Source
}

func (w Warning) severityOrDefault() string {
	if w.Severity == "" {
		return SeverityWarning
	}
	return w.Severity
}
