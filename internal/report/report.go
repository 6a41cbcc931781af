// Package report renders build summaries and check results for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/BegaDeveloper/wwcorpus/internal/pipeline"
	"github.com/BegaDeveloper/wwcorpus/internal/writer"
)

var (
	primary = lipgloss.Color("#00ff9f")
	dim     = lipgloss.Color("#6e7681")
	failed  = lipgloss.Color("#ff5f5f")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	helpStyle   = lipgloss.NewStyle().Foreground(dim)
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(failed)
)

// Summary prints one table row per split with its stage counts.
func Summary(output io.Writer, summary pipeline.Summary) error {
	rows := [][]string{}
	for _, split := range summary.Splits {
		length := "-"
		if split.Combined.Length != nil {
			length = fmt.Sprintf("%.1fs", split.Combined.Length.Total.Seconds())
		}
		rows = append(rows, []string{
			string(split.Split),
			strconv.Itoa(split.Counts[pipeline.StageWakeWordLoaded]),
			strconv.Itoa(split.Counts[pipeline.StageGeneralLoaded]),
			strconv.Itoa(split.Counts[pipeline.StageGeneralKept]),
			strconv.Itoa(split.Counts[pipeline.StageWritten]),
			length,
		})
	}
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(primary)).
		Headers("split", "wake word", "general", "kept", "written", "length").
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case column == 0:
				return cellStyle
			default:
				return numberStyle
			}
		}).
		Render()

	_, err := fmt.Fprintf(output, "%s\n%s\n%s\n",
		titleStyle.Render("corpus build "+summary.RunID),
		rendered,
		helpStyle.Render("output: "+summary.Location),
	)
	return err
}

// Check is one PASS/FAIL line.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// FromVerify converts verification checks.
func FromVerify(verifyReport writer.VerifyReport) []Check {
	checks := make([]Check, 0, len(verifyReport.Checks))
	for _, check := range verifyReport.Checks {
		checks = append(checks, Check{Name: check.Name, OK: check.Passed, Detail: check.Detail})
	}
	return checks
}

// Checks prints "[PASS] name: detail" lines and returns how many failed.
func Checks(output io.Writer, checks []Check) int {
	failures := 0
	for _, check := range checks {
		status := passStyle.Render("PASS")
		if !check.OK {
			status = failStyle.Render("FAIL")
			failures++
		}
		fmt.Fprintf(output, "[%s] %s: %s\n", status, check.Name, check.Detail)
	}
	return failures
}
