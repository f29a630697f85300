package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/service"
)

func (rt *runtime) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage helpdesk accounts",
	}

	var input service.NewUserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withContainer(cmd.Context(), func(c *app.Container) error {
				user, err := c.Auth.CreateUser(cmd.Context(), input)
				if err != nil {
					return err
				}
				if rt.v.GetString("output") == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"id":           user.ID,
						"username":     user.Username,
						"is_staff":     user.IsStaff,
						"is_superuser": user.IsSuperuser,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&input.Username, "username", "", "login name")
	create.Flags().StringVar(&input.Email, "email", "", "e-mail address")
	create.Flags().StringVar(&input.Password, "password", "", "initial password")
	create.Flags().BoolVar(&input.IsStaff, "staff", false, "grant staff access")
	create.Flags().BoolVar(&input.IsSuperuser, "superuser", false, "grant every permission")
	create.Flags().StringSliceVar(&input.Permissions, "perm", nil, "permission to grant (repeatable)")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
