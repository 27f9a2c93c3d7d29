package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"labtrack/internal/core"
	"labtrack/pkg/domain"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func (a *app) paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "List or add tracked parameters",
	}
	cmd.AddCommand(a.paramsListCmd(), a.paramsAddCmd())
	return cmd
}

func (a *app) paramsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUNIT\tRANGE\tLATEST")
			for _, p := range a.svc.ListParameters() {
				latest := "-"
				if recent, err := a.svc.RecentResults(p.ID, 1); err == nil && len(recent) == 1 {
					latest = fmt.Sprintf("%g (%s)", recent[0].Value, recent[0].Status.Label())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g-%g\t%s\n", p.ID, p.Name, p.Unit, p.NormalRange.Min, p.NormalRange.Max, latest)
			}
			return tw.Flush()
		},
	}
}

func (a *app) paramsAddCmd() *cobra.Command {
	var draft domain.ParameterDraft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a custom parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := a.svc.AddParameter(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s, %s, %g-%g)\n", p.ID, p.Name, p.Unit, p.NormalRange.Min, p.NormalRange.Max)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Name, "name", "", "display name")
	f.StringVar(&draft.Unit, "unit", "", "unit of measure")
	f.Float64Var(&draft.Min, "min", 0, "lower bound of the normal range")
	f.Float64Var(&draft.Max, "max", 0, "upper bound of the normal range")
	f.StringVar(&draft.Color, "color", "", "chart color, one of the preset palette by default")
	return cmd
}

func (a *app) recordCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "record <parameter> <value>",
		Short: "Record a measurement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(strings.Replace(args[1], ",", ".", 1), 64)
			if err != nil {
				return &domain.ValidationError{Field: "value", Message: fmt.Sprintf("%q is not a number", args[1])}
			}
			ts := a.clock.Now()
			if date != "" {
				ts, err = time.Parse(dateLayout, date)
				if err != nil {
					return &domain.ValidationError{Field: "timestamp", Message: fmt.Sprintf("date %q must be YYYY-MM-DD", date)}
				}
			}
			m, res, err := a.svc.AddMeasurement(cmd.Context(), args[0], value, ts)
			if err != nil {
				return err
			}
			status, err := a.svc.ClassifyValue(args[0], m.Value)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recorded %s %g on %s: %s\n", args[0], m.Value, m.DisplayDate, status.Label())
			for _, v := range res.Violations {
				fmt.Fprintf(out, "%s: %s\n", v.Severity, v.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "measurement date (YYYY-MM-DD), defaults to now")
	return cmd
}

func (a *app) seriesCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "series <parameter>",
		Short: "Print the chronological series of a parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := domain.ParseWindow(window)
			if err != nil {
				return err
			}
			view, err := a.svc.Chart(args[0], w)
			if err != nil {
				return err
			}
			return printReadings(cmd.OutOrStdout(), view.Points)
		},
	}
	cmd.Flags().StringVar(&window, "window", "all", "time window: 6m, 12m, 24m or all")
	return cmd
}

func (a *app) recentCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "recent <parameter>",
		Short: "Show the most recent results, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := a.svc.RecentResults(args[0], n)
			if err != nil {
				return err
			}
			return printReadings(cmd.OutOrStdout(), readings)
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 3, "number of results")
	return cmd
}

func (a *app) chartCmd() *cobra.Command {
	var window string
	var width int
	cmd := &cobra.Command{
		Use:   "chart <parameter>",
		Short: "Render a text chart of a parameter over a time window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := domain.ParseWindow(window)
			if err != nil {
				return err
			}
			view, err := a.svc.Chart(args[0], w)
			if err != nil {
				return err
			}
			return renderChart(cmd.OutOrStdout(), view, width)
		},
	}
	cmd.Flags().StringVar(&window, "window", "12m", "time window: 6m, 12m, 24m or all")
	cmd.Flags().IntVar(&width, "width", 40, "bar width in characters")
	return cmd
}

func (a *app) seedDemoCmd() *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Generate monthly demo readings for every parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.svc.SeedDemoData(cmd.Context(), months)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d readings\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&months, "months", core.DefaultDemoMonths, "months of history to generate")
	return cmd
}

func printReadings(w io.Writer, readings []core.Reading) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIMESTAMP\tVALUE\tSTATUS")
	for _, r := range readings {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\n", r.DisplayDate, r.Timestamp.Format(dateLayout), r.Value, r.Status.Label())
	}
	return tw.Flush()
}

// renderChart draws one horizontal bar per point scaled to the chart domain,
// marking the normal range bounds with '|'.
func renderChart(w io.Writer, view core.ChartView, width int) error {
	if width < 10 {
		width = 10
	}
	d := view.Domain
	p := view.Parameter
	fmt.Fprintf(w, "%s (%s) window=%s domain=[%.2f, %.2f] normal=[%g, %g]\n",
		p.Name, p.Unit, view.Window, d.Low, d.High, p.NormalRange.Min, p.NormalRange.Max)
	if len(view.Points) == 0 {
		_, err := fmt.Fprintln(w, "no readings")
		return err
	}
	col := func(v float64) int {
		if d.High <= d.Low {
			return 0
		}
		c := int((v - d.Low) / (d.High - d.Low) * float64(width-1))
		return max(0, min(width-1, c))
	}
	lo, hi := col(p.NormalRange.Min), col(p.NormalRange.Max)
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, r := range view.Points {
		line := []byte(strings.Repeat(" ", width))
		line[lo], line[hi] = '|', '|'
		mark := byte('*')
		if r.Status == domain.StatusOutOfRange {
			mark = '!'
		}
		line[col(r.Value)] = mark
		fmt.Fprintf(tw, "%s\t%s\t%g\n", r.DisplayDate, line, r.Value)
	}
	return tw.Flush()
}
