package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/service"
)

func (rt *runtime) reportCommand() *cobra.Command {
	var savedQuery string
	cmd := &cobra.Command{
		Use:   "report NAME",
		Short: "Print a ticket report, or basic statistics for NAME=basic",
		Long:  "Reports: basic, " + strings.Join(service.ReportNames, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withContainer(cmd.Context(), func(c *app.Container) error {
				actor, err := rt.actor(cmd.Context(), c)
				if err != nil {
					return err
				}
				asJSON := rt.v.GetString("output") == "json"
				if args[0] == "basic" {
					stats, err := c.Reports.BasicStats(cmd.Context(), actor)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd.OutOrStdout(), stats)
					}
					return writeStats(cmd.OutOrStdout(), stats)
				}
				report, err := c.Reports.RunReport(cmd.Context(), actor, args[0], savedQuery)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				return writeReport(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&savedQuery, "saved-query", "", "saved search id to filter by")
	return cmd
}

func writeReport(w io.Writer, report *service.Report) error {
	fmt.Fprintln(w, report.Title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(report.Headings, "\t"))
	for _, row := range report.Rows {
		cells := []string{row.Label}
		for _, v := range row.Values {
			cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeStats(w io.Writer, stats *service.BasicStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, bucket := range stats.OpenByAge {
		fmt.Fprintf(tw, "%s\t%d\n", bucket.Label, bucket.Count)
	}
	fmt.Fprintf(tw, "Average days until closed\t%.2f\n", stats.AverageDaysUntilClosed)
	fmt.Fprintf(tw, "Average days until closed (last 60 days)\t%.2f\n", stats.AverageDaysUntilClosedRecent)
	return tw.Flush()
}
