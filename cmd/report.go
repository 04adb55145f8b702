package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/spigell/jd-gatekeeper/internal/eligibility"
	"github.com/spigell/jd-gatekeeper/internal/keywords"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	notEligibleMessage = "You're not eligible for any of the jobs. Keep building your resume."

	statusEligible   = "eligible"
	statusBelow      = "below threshold"
	statusDegenerate = "no usable keywords"
	statusFailed     = "failed"
)

type reportRow struct {
	Role   string   `json:"role"`
	File   string   `json:"file"`
	Score  *float64 `json:"score,omitempty"`
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
}

type report struct {
	Resume    string      `json:"resume"`
	Strategy  string      `json:"strategy"`
	Threshold float64     `json:"threshold"`
	Eligible  []reportRow `json:"eligible"`
	Assessed  []reportRow `json:"assessed,omitempty"`
}

func newReport(resume, strategy string, result *eligibility.Result, all bool) *report {
	r := &report{
		Resume:   resume,
		Strategy: strategy,
		Eligible: []reportRow{},
	}
	if result == nil {
		return r
	}

	r.Threshold = result.Threshold
	for _, a := range result.Matches {
		r.Eligible = append(r.Eligible, newReportRow(a))
	}
	if all {
		r.Assessed = make([]reportRow, 0, len(result.Assessments))
		for _, a := range result.Assessments {
			r.Assessed = append(r.Assessed, newReportRow(a))
		}
	}
	return r
}

func newReportRow(a eligibility.Assessment) reportRow {
	row := reportRow{Role: keywords.RoleName(a.ID), File: a.ID}

	switch {
	case a.Err != nil:
		row.Status = statusFailed
		row.Error = a.Err.Error()
		return row
	case a.Eligible:
		row.Status = statusEligible
	case a.Degenerate:
		row.Status = statusDegenerate
	default:
		row.Status = statusBelow
	}

	score := a.Score
	row.Score = &score
	return row
}

func writeReport(w io.Writer, format string, r *report) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case outputTable, "":
		return writeReportTable(w, r)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeReportTable(w io.Writer, r *report) error {
	if len(r.Eligible) == 0 {
		if _, err := fmt.Fprintln(w, notEligibleMessage); err != nil {
			return err
		}
	} else {
		tw := newReportTable(fmt.Sprintf("Eligible jobs for %s", keywords.RoleName(r.Resume)),
			rankColumn, roleColumn, fileColumn, scoreColumn)
		for i, row := range r.Eligible {
			tw.AppendRow(table.Row{i + 1, row.Role, row.File, formatScore(row.Score)})
		}
		jobsFooter(tw, 4)
		if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
			return err
		}
	}

	if len(r.Assessed) == 0 {
		return nil
	}

	tw := newReportTable(fmt.Sprintf("All assessed jobs (threshold %s)", strconv.FormatFloat(r.Threshold, 'f', -1, 64)),
		roleColumn, fileColumn, scoreColumn, statusColumn)
	for _, row := range r.Assessed {
		status := row.Status
		if row.Error != "" {
			status += ": " + row.Error
		}
		tw.AppendRow(table.Row{row.Role, row.File, formatScore(row.Score), status})
	}
	jobsFooter(tw, 4)
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 4, 64)
}
