package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/doctor"
	"github.com/conn-castle/mycelium/internal/messages"
)

var runChecks = doctor.Run

func newDoctorCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, messages.DoctorHealthCheckFmt, env.Paths.Home)

			results := runChecks(doctor.Options{Paths: env.Paths, Settings: env.Settings, Log: env.Log})
			for _, r := range results {
				printResult(out, r)
			}

			summary := doctor.Summarize(results)
			_, _ = fmt.Fprintf(out, messages.DoctorSummaryFmt, summary.OK, summary.Warn, summary.Fail)
			if summary.Healthy() {
				_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
				return nil
			}
			if len(summary.Remediation) > 0 {
				_, _ = fmt.Fprintln(out, messages.DoctorRemediationHeader)
				for _, fix := range summary.Remediation {
					_, _ = fmt.Fprintf(out, messages.DoctorRemediationItemFmt, fix)
				}
			}
			if strict {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorStrictFailure))
				return &SilentExitError{Code: 1}
			}
			_, _ = fmt.Fprintln(out, color.YellowString(messages.DoctorIssuesSummary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, messages.DoctorStrictFlagUsage)
	return cmd
}

func printResult(out io.Writer, r doctor.Result) {
	var status string
	switch r.Status {
	case doctor.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case doctor.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case doctor.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}

	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent indentation.
func printRecommendation(out io.Writer, recommendation string) {
	lines := strings.Split(recommendation, "\n")
	for i, line := range lines {
		if i == 0 {
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
			continue
		}
		if line == "" {
			_, _ = fmt.Fprintf(out, "%s\n", messages.DoctorRecommendationIndent)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationIndent, line)
	}
}
