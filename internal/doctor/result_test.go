package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	results := []Result{
		{Status: StatusOK, CheckName: "a", Recommendation: "ignored"},
		{Status: StatusWarn, CheckName: "b", Recommendation: "Run `myc plugin sync`."},
		{Status: StatusFail, CheckName: "c", Recommendation: "Run `myc plugin sync`."},
		{Status: StatusFail, CheckName: "d", Recommendation: "Run `myc remove x --type skill`."},
		{Status: StatusWarn, CheckName: "e"},
	}

	summary := Summarize(results)
	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, 2, summary.Warn)
	assert.Equal(t, 2, summary.Fail)
	assert.Equal(t, []string{"Run `myc plugin sync`.", "Run `myc remove x --type skill`."}, summary.Remediation)
	assert.False(t, summary.Healthy())
}

func TestSummarizeHealthy(t *testing.T) {
	summary := Summarize([]Result{{Status: StatusOK}})
	assert.True(t, summary.Healthy())
	assert.Empty(t, summary.Remediation)
}
