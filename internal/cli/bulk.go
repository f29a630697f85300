package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/bulk"
	"github.com/spec-kit/helpdesk/internal/domain"
)

type bulkAction func(cmd *cobra.Command, c *app.Container, actor *domain.User, ids []string) (*bulk.Outcome, error)

func (rt *runtime) bulkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one action to many tickets",
	}

	var assignee string
	var unassign bool
	assign := &cobra.Command{
		Use:   "assign TICKET_ID...",
		Short: "Assign tickets to a user, or unassign them",
		Args:  cobra.MinimumNArgs(1),
		RunE: rt.runBulk(func(cmd *cobra.Command, c *app.Container, actor *domain.User, ids []string) (*bulk.Outcome, error) {
			if unassign == (assignee != "") {
				return nil, fmt.Errorf("exactly one of --to or --unassign is required")
			}
			var target *string
			if assignee != "" {
				user, err := c.Store.Users().GetByUsername(cmd.Context(), assignee)
				if err != nil {
					return nil, fmt.Errorf("resolve user %q: %w", assignee, err)
				}
				target = &user.ID
			}
			return c.Bulk.Assign(cmd.Context(), actor, ids, target)
		}),
	}
	assign.Flags().StringVar(&assignee, "to", "", "username of the new owner")
	assign.Flags().BoolVar(&unassign, "unassign", false, "clear the owner")

	var notify bool
	closeCmd := &cobra.Command{
		Use:   "close TICKET_ID...",
		Short: "Close tickets",
		Args:  cobra.MinimumNArgs(1),
		RunE: rt.runBulk(func(cmd *cobra.Command, c *app.Container, actor *domain.User, ids []string) (*bulk.Outcome, error) {
			return c.Bulk.Close(cmd.Context(), actor, ids, notify)
		}),
	}
	closeCmd.Flags().BoolVar(&notify, "notify", false, "e-mail the submitter, owner and subscribers")

	deleteCmd := &cobra.Command{
		Use:   "delete TICKET_ID...",
		Short: "Delete tickets",
		Args:  cobra.MinimumNArgs(1),
		RunE: rt.runBulk(func(cmd *cobra.Command, c *app.Container, actor *domain.User, ids []string) (*bulk.Outcome, error) {
			return c.Bulk.Delete(cmd.Context(), actor, ids)
		}),
	}

	cmd.AddCommand(assign, closeCmd, deleteCmd)
	return cmd
}

func (rt *runtime) runBulk(action bulkAction) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return rt.withContainer(cmd.Context(), func(c *app.Container) error {
			actor, err := rt.actor(cmd.Context(), c)
			if err != nil {
				return err
			}
			out, err := action(cmd, c, actor, args)
			if err != nil {
				return err
			}
			if rt.v.GetString("output") == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeOutcome(cmd.OutOrStdout(), out)
		})
	}
}

func writeOutcome(w io.Writer, out *bulk.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ACTION\t%s\nAFFECTED\t%d\n", out.Action, out.Count)
	for _, msg := range out.Messages {
		ticket := msg.TicketID
		if ticket == "" {
			ticket = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", msg.Level, ticket, msg.Text)
	}
	return tw.Flush()
}
