package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one report table column.
type column struct {
	header string
	align  text.Align
}

var (
	rankColumn   = column{header: "#", align: text.AlignRight}
	roleColumn   = column{header: "Role", align: text.AlignLeft}
	fileColumn   = column{header: "File", align: text.AlignLeft}
	scoreColumn  = column{header: "Score", align: text.AlignRight}
	statusColumn = column{header: "Status", align: text.AlignLeft}
)

// newReportTable prepares a titled table with the given columns. Headers stay
// left aligned whatever the cell alignment is.
func newReportTable(title string, columns ...column) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("%s", title)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header = append(header, c.header)
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	return tw
}

// jobsFooter counts the rows of a report table in its footer.
func jobsFooter(tw table.Writer, columns int) {
	footer := make(table.Row, columns)
	if columns > 0 {
		footer[columns-1] = fmt.Sprintf("%d jobs", tw.Length())
	}
	tw.AppendFooter(footer)
}
