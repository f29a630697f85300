// Package cli implements helpdeskctl, the operator command line for the
// helpdesk service.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// Options supplies the backends the commands run against.
type Options struct {
	// Build returns the wired services. Commands close the container when done
	// unless KeepOpen is set.
	Build func(ctx context.Context) (*app.Container, error)
	// Migrate applies the SQL migrations in dir.
	Migrate  func(ctx context.Context, dir string) error
	KeepOpen bool
}

type runtime struct {
	opts Options
	v    *viper.Viper
}

// NewRootCommand builds the helpdeskctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	rt := &runtime{opts: opts, v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:           "helpdeskctl",
		Short:         "Operate the helpdesk: migrations, users, bulk actions and reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.initConfig(cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	root.PersistentFlags().String("as", "", "username to act as")
	root.PersistentFlags().String("output", "table", "output format (table, json)")
	_ = rt.v.BindPFlag("as", root.PersistentFlags().Lookup("as"))
	_ = rt.v.BindPFlag("output", root.PersistentFlags().Lookup("output"))

	root.AddCommand(
		rt.migrateCommand(),
		rt.userCommand(),
		rt.bulkCommand(),
		rt.reportCommand(),
	)
	return root
}

func (rt *runtime) initConfig(cfgFile string) error {
	rt.v.SetEnvPrefix("HELPDESKCTL")
	rt.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	rt.v.AutomaticEnv()
	if cfgFile == "" {
		return nil
	}
	rt.v.SetConfigFile(cfgFile)
	if err := rt.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// withContainer runs fn against a freshly built container.
func (rt *runtime) withContainer(ctx context.Context, fn func(c *app.Container) error) error {
	c, err := rt.opts.Build(ctx)
	if err != nil {
		return err
	}
	if !rt.opts.KeepOpen {
		defer c.Close()
	}
	return fn(c)
}

// actor resolves the --as user.
func (rt *runtime) actor(ctx context.Context, c *app.Container) (*domain.User, error) {
	username := rt.v.GetString("as")
	if username == "" {
		return nil, fmt.Errorf("--as is required")
	}
	user, err := c.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", username, err)
	}
	return user, nil
}
