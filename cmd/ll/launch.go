package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"launchline/internal/domain"
	"launchline/internal/engine"
	"launchline/internal/query"
)

func launchCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "launch",
		Short: "Manage launches",
	}
	l.AddCommand(launchListCmd())
	l.AddCommand(launchCreateCmd())
	l.AddCommand(launchShowCmd())
	l.AddCommand(launchUpdateCmd())
	l.AddCommand(launchDeleteCmd())
	l.AddCommand(launchRescoreCmd())
	return l
}

func launchListCmd() *cobra.Command {
	var f engine.LaunchFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List launches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				list, err := e.ListLaunches(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				now := time.Now().UTC()
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Type", "Location", "Opens", "Status", "Readiness", "Permits"})
				for _, l := range list.Launches {
					tw.AppendRow(table.Row{
						l.ID, l.Name, l.Type, l.Location, formatDate(&l.TargetOpenDate),
						label(query.Classify(l, now)), l.ReadinessScore, len(l.Permits),
					})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d active / %d completed", list.Stats.Active, list.Stats.Completed), fmt.Sprintf("avg %d", list.Stats.AverageReadiness), list.Stats.Total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "", "business type filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (active, completed, overdue)")
	return cmd
}

func launchCreateCmd() *cobra.Command {
	var in domain.LaunchInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a launch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.CreateLaunch(ctx, in)
				if err != nil {
					return err
				}
				return printOr(l, func(w io.Writer) { renderLaunch(w, l) })
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "launch name")
	cmd.Flags().StringVar(&in.Location, "location", "", "city or area")
	cmd.Flags().StringVar(&in.Address, "address", "", "street address")
	cmd.Flags().StringVar(&in.Type, "type", "", "business type, e.g. restaurant")
	cmd.Flags().StringVar(&in.TargetOpenDate, "open", "", "target open date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func launchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <launch-id>",
		Short: "Show a launch with its permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				view, err := e.GetLaunch(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				l, m := view.Launch, view.Metadata
				fmt.Printf("%s  %s (%s)\n", l.ID, l.Name, l.Type)
				fmt.Printf("%s, %s\n", l.Address, l.Location)
				fmt.Printf("opens %s (%d days), readiness %d, overdue %t\n", formatDate(&l.TargetOpenDate), m.DaysUntilOpen, l.ReadinessScore, m.IsOverdue)
				fmt.Printf("permits: %d total, %d approved, %d pending, %d critical, %d overdue\n",
					m.PermitStats.Total, m.PermitStats.Approved, m.PermitStats.Pending, m.PermitStats.Critical, m.PermitStats.Overdue)
				renderPermits(os.Stdout, l.Permits)
				return nil
			})
		},
	}
}

func launchUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <launch-id>",
		Short: "Update launch fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.LaunchPatch{
				Name:           optionalString(cmd, "name"),
				Location:       optionalString(cmd, "location"),
				Address:        optionalString(cmd, "address"),
				Type:           optionalString(cmd, "type"),
				TargetOpenDate: optionalString(cmd, "open"),
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				l, err := e.UpdateLaunch(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printOr(l, func(w io.Writer) { renderLaunch(w, l) })
			})
		},
	}
	cmd.Flags().String("name", "", "launch name")
	cmd.Flags().String("location", "", "city or area")
	cmd.Flags().String("address", "", "street address")
	cmd.Flags().String("type", "", "business type")
	cmd.Flags().String("open", "", "target open date (YYYY-MM-DD)")
	return cmd
}

func launchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <launch-id>",
		Short: "Delete a launch and its permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.DeleteLaunch(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("deleted %s %q and %d permits\n", res.ID, res.Name, res.PermitCount)
				return nil
			})
		},
	}
}

func launchRescoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescore <launch-id>",
		Short: "Recompute the readiness score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.RecomputeReadiness(ctx, args[0])
				if err != nil {
					return err
				}
				return printOr(res, func(w io.Writer) {
					fmt.Fprintf(w, "launch %s readiness %d\n", res.ID, res.ReadinessScore)
				})
			})
		},
	}
}

// renderLaunch prints the launch fields as a two-column table followed by
// its permits.
func renderLaunch(w io.Writer, l domain.Launch) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRows([]table.Row{
		{"ID", l.ID},
		{"Name", l.Name},
		{"Type", l.Type},
		{"Location", l.Location},
		{"Address", l.Address},
		{"Opens", formatDate(&l.TargetOpenDate)},
		{"Readiness", l.ReadinessScore},
		{"Permits", len(l.Permits)},
	})
	tw.Render()
	if len(l.Permits) > 0 {
		renderPermits(w, l.Permits)
	}
}

func renderPermits(w io.Writer, permits []domain.Permit) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Type", "Title", "Status", "Priority", "Deadline", "Inspection", "Days"})
	for _, p := range permits {
		tw.AppendRow(table.Row{
			p.ID, label(p.Type), p.Title, label(p.Status), label(p.Priority),
			formatDate(p.ApplicationDeadline), formatDate(p.InspectionDate), p.EstimatedProcessingDays,
		})
	}
	tw.Render()
}
