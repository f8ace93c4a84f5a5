package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"launchline/internal/domain"
	"launchline/internal/engine"
)

func permitCmd() *cobra.Command {
	p := &cobra.Command{
		Use:   "permit",
		Short: "Manage the permits of a launch",
	}
	p.AddCommand(permitListCmd())
	p.AddCommand(permitAddCmd())
	p.AddCommand(permitShowCmd())
	p.AddCommand(permitUpdateCmd())
	p.AddCommand(permitDeleteCmd())
	return p
}

func permitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <launch-id>",
		Short: "List permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				list, err := e.ListPermits(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				renderPermits(os.Stdout, list.Permits)
				m := list.Metadata
				fmt.Printf("%d total, %d approved, %d pending, %d critical\n", m.Total, m.Approved, m.Pending, m.Critical)
				return nil
			})
		},
	}
}

// permitDetailFlags are shared by add and update.
func permitDetailFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "permit type (health, fire, ada, license, zoning, building)")
	cmd.Flags().String("title", "", "permit title")
	cmd.Flags().String("priority", "", "priority (low, medium, high, critical)")
	cmd.Flags().Int("days", 0, "estimated processing days")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("agency", "", "issuing agency")
	cmd.Flags().String("inspector", "", "inspector name")
	cmd.Flags().String("inspector-contact", "", "inspector contact")
	cmd.Flags().String("reference", "", "application reference")
	cmd.Flags().String("deadline", "", "application deadline (YYYY-MM-DD)")
	cmd.Flags().String("inspection", "", "inspection date (YYYY-MM-DD)")
	cmd.Flags().String("approval-deadline", "", "approval deadline (YYYY-MM-DD)")
}

func permitAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <launch-id>",
		Short: "Add a permit (priority and days default from config)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			title, _ := cmd.Flags().GetString("title")
			priority, _ := cmd.Flags().GetString("priority")
			in := domain.PermitInput{
				Type:                    domain.PermitType(typ),
				Title:                   title,
				Priority:                domain.Priority(priority),
				EstimatedProcessingDays: optionalInt(cmd, "days"),
				Description:             optionalString(cmd, "description"),
				Agency:                  optionalString(cmd, "agency"),
				InspectorName:           optionalString(cmd, "inspector"),
				InspectorContact:        optionalString(cmd, "inspector-contact"),
				ApplicationReference:    optionalString(cmd, "reference"),
				ApplicationDeadline:     optionalString(cmd, "deadline"),
				InspectionDate:          optionalString(cmd, "inspection"),
				ApprovalDeadline:        optionalString(cmd, "approval-deadline"),
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePermit(ctx, args[0], e.PermitDefaults(in))
				if err != nil {
					return err
				}
				return printOr(p, func(w io.Writer) { renderPermit(w, p) })
			})
		},
	}
	permitDetailFlags(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func permitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <launch-id> <permit-id>",
		Short: "Show a permit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPermit(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printOr(p, func(w io.Writer) { renderPermit(w, p) })
			})
		},
	}
}

func permitUpdateCmd() *cobra.Command {
	var notes, actions []string
	cmd := &cobra.Command{
		Use:   "update <launch-id> <permit-id>",
		Short: "Update a permit and rescore its launch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.PermitPatch{
				Title:                   optionalString(cmd, "title"),
				Description:             optionalString(cmd, "description"),
				EstimatedProcessingDays: optionalInt(cmd, "days"),
				Agency:                  optionalString(cmd, "agency"),
				InspectorName:           optionalString(cmd, "inspector"),
				InspectorContact:        optionalString(cmd, "inspector-contact"),
				ApplicationReference:    optionalString(cmd, "reference"),
				ApplicationDeadline:     optionalString(cmd, "deadline"),
				InspectionDate:          optionalString(cmd, "inspection"),
				ApprovalDeadline:        optionalString(cmd, "approval-deadline"),
				AddInspectorNotes:       notes,
				AddCorrectiveActions:    actions,
			}
			if v := optionalString(cmd, "type"); v != nil {
				t := domain.PermitType(*v)
				patch.Type = &t
			}
			if v := optionalString(cmd, "status"); v != nil {
				s := domain.PermitStatus(*v)
				patch.Status = &s
			}
			if v := optionalString(cmd, "priority"); v != nil {
				pr := domain.Priority(*v)
				patch.Priority = &pr
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.UpdatePermit(ctx, args[0], args[1], patch)
				if err != nil {
					return err
				}
				return printOr(res, func(w io.Writer) {
					renderPermit(w, res.Permit)
					fmt.Fprintf(w, "launch %s readiness %d\n", res.Launch.ID, res.Launch.ReadinessScore)
				})
			})
		},
	}
	permitDetailFlags(cmd)
	cmd.Flags().String("status", "", "status (not_started, scheduled, in_review, approved, rejected)")
	cmd.Flags().StringArrayVar(&notes, "note", []string{}, "inspector note to append (repeatable)")
	cmd.Flags().StringArrayVar(&actions, "action", []string{}, "corrective action to append (repeatable)")
	return cmd
}

func permitDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <launch-id> <permit-id>",
		Short: "Delete a permit and rescore its launch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.DeletePermit(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("deleted %s; launch %s now has %d permits (readiness %d)\n",
					res.Permit.ID, res.Launch.ID, res.Launch.PermitCount, res.Launch.ReadinessScore)
				return nil
			})
		},
	}
}

// renderPermit prints one permit as a two-column table. Unset optional fields
// are left out.
func renderPermit(w io.Writer, p domain.Permit) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Launch", p.LaunchID},
		{"Type", label(p.Type)},
		{"Title", p.Title},
		{"Status", label(p.Status)},
		{"Priority", label(p.Priority)},
		{"Processing Days", p.EstimatedProcessingDays},
	})
	optional := []struct {
		name  string
		value string
	}{
		{"Description", deref(p.Description)},
		{"Agency", deref(p.Agency)},
		{"Inspector", deref(p.InspectorName)},
		{"Inspector Contact", deref(p.InspectorContact)},
		{"Reference", deref(p.ApplicationReference)},
		{"Deadline", formatDate(p.ApplicationDeadline)},
		{"Inspection", formatDate(p.InspectionDate)},
		{"Approval Deadline", formatDate(p.ApprovalDeadline)},
		{"Notes", strings.Join(p.InspectorNotes, "\n")},
		{"Corrective Actions", strings.Join(p.CorrectiveActions, "\n")},
	}
	for _, f := range optional {
		if f.value != "" {
			tw.AppendRow(table.Row{f.name, f.value})
		}
	}
	tw.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
