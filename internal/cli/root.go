package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-mdsite"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
)

type ctxKey string

const appKey ctxKey = "app"

var errAppNotInitialized = errors.New("mdsite cli: app not initialized")

// app holds the resolved configuration for one invocation. The module is
// built on first use so `mdsite config` works with an invalid layout.
type app struct {
	viper  *viper.Viper
	cfg    runtimeconfig.Config
	opts   []mdsite.Option
	module *mdsite.Module
}

func (a *app) Module() (*mdsite.Module, error) {
	if a.module != nil {
		return a.module, nil
	}
	module, err := mdsite.New(a.cfg, a.opts...)
	if err != nil {
		return nil, err
	}
	a.module = module
	return module, nil
}

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command. opts are forwarded to mdsite.New,
// after the log writer is pointed at the command's stderr.
func NewRootCmd(opts ...mdsite.Option) *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "mdsite",
		Short:         "Markdown to HTML converter and static site generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			cfg, err := Load(v, cmd.Flags())
			if err != nil {
				return err
			}

			moduleOpts := append([]mdsite.Option{mdsite.WithLogWriter(cmd.ErrOrStderr())}, opts...)
			a := &app{viper: v, cfg: cfg, opts: moduleOpts}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey, a))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (yaml|toml|json)")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("engine", "", "markdown engine (native, goldmark)")
	flags.String("content", "", "content directory")
	bindFlag(flags, "log-level", "logging.level")
	bindFlag(flags, "engine", "markdown.engine")
	bindFlag(flags, "content", "markdown.content_dir")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newPageCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newTitleCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errAppNotInitialized
	}
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errAppNotInitialized
	}
	return a, nil
}

func getModule(cmd *cobra.Command) (*mdsite.Module, error) {
	a, err := getApp(cmd)
	if err != nil {
		return nil, err
	}
	return a.Module()
}
