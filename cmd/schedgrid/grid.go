package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"schedgrid/internal/grid"
)

var (
	gridDate     string
	gridView     string
	gridInterval int
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the date grid of one view",
	Long: `Print the header rows and work cells of a view as a table.

Other-month cells are shown in parentheses and today's cell in brackets.`,
	Example: `  schedgrid grid --date 2017-10-05
  schedgrid grid --view WorkWeek --interval 2`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

func init() {
	gridCmd.Flags().StringVar(&gridDate, "date", "", "Anchor date as YYYY-MM-DD (default: today)")
	gridCmd.Flags().StringVar(&gridView, "view", "", "Day, Week, WorkWeek or Month (default: from config)")
	gridCmd.Flags().IntVar(&gridInterval, "interval", 0, "Number of days, weeks or months shown (default: from config)")
}

func runGrid(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	loc := conf.Location()

	anchor := grid.DateOf(time.Now().In(loc))
	if gridDate != "" {
		if anchor, err = grid.ParseDate(gridDate); err != nil {
			return err
		}
	}
	if gridView != "" {
		v, err := grid.ParseView(gridView)
		if err != nil {
			return err
		}
		conf.View.CurrentView = string(v)
	}
	if gridInterval > 0 {
		conf.View.Interval = gridInterval
	}

	sched, err := newScheduler(conf, anchor, time.Now)
	if err != nil {
		return err
	}
	return renderGrid(cmd.OutOrStdout(), sched.Layout())
}

// renderGrid writes l as a tab-aligned table: a summary line, the header
// rows (a header spanning n columns is followed by n-1 empty cells) and one
// line per grid row.
func renderGrid(w io.Writer, l *grid.Layout) error {
	if _, err := fmt.Fprintf(w, "%s %s .. %s: %d cells, %d work days\n",
		l.View, l.Start, l.End, len(l.Cells), l.WorkDayCount()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range l.HeaderRows {
		var fields []string
		for _, h := range row {
			fields = append(fields, h.Text)
			for i := 1; i < h.ColSpan; i++ {
				fields = append(fields, "")
			}
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}

	perRow := len(l.Columns) * l.GroupCount
	if perRow == 0 {
		return tw.Flush()
	}
	fields := make([]string, 0, perRow)
	for _, c := range l.Cells {
		fields = append(fields, cellText(c))
		if len(fields) == perRow {
			fmt.Fprintln(tw, strings.Join(fields, "\t"))
			fields = fields[:0]
		}
	}
	return tw.Flush()
}

func cellText(c grid.Cell) string {
	switch {
	case c.IsCurrentDate:
		return "[" + c.Label + "]"
	case c.IsOtherMonth:
		return "(" + c.Label + ")"
	default:
		return c.Label
	}
}
