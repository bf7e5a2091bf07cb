// Package cmd wires the mediastore command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vtttools/mediastore/cmd/find"
	"github.com/vtttools/mediastore/cmd/info"
	"github.com/vtttools/mediastore/cmd/list"
	"github.com/vtttools/mediastore/cmd/plan"
	"github.com/vtttools/mediastore/cmd/save"
	"github.com/vtttools/mediastore/cmd/serve"
	"github.com/vtttools/mediastore/cmd/summary"
	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/buildinfo"
	"github.com/vtttools/mediastore/internal/conf"
)

// globalFlags holds flags that are not mirrored in the settings.
type globalFlags struct {
	configFile  string
	printConfig bool
	writeConfig string
}

// RootCommand creates and returns the root command
func RootCommand(build *buildinfo.Context) *cobra.Command {
	ctx := app.NewContext(build)
	v := conf.NewViper()
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "mediastore",
		Short:         "Hierarchical media store for generated game assets",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.printConfig || flags.writeConfig != "" {
				return nil
			}
			return cmd.Help()
		},
	}

	if err := setupFlags(rootCmd, v, &flags); err != nil {
		// Flag names are static; a binding failure is a programming error.
		panic(err)
	}

	rootCmd.AddCommand(
		save.Command(ctx),
		save.PoseCommand(ctx),
		find.Command(ctx),
		list.Command(ctx),
		summary.Command(ctx),
		info.Command(ctx),
		plan.Command(ctx),
		serve.Command(ctx),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := conf.Load(v, flags.configFile)
		if err != nil {
			return err
		}
		if err := ctx.Init(settings, app.WithConsole(cmd.ErrOrStderr())); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		if flags.writeConfig != "" {
			if err := conf.SaveYAMLConfig(flags.writeConfig, settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), flags.writeConfig)
		}
		if flags.printConfig {
			return conf.WriteYAML(cmd.OutOrStdout(), settings)
		}
		return nil
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return ctx.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
// and binds the ones backed by settings to v.
func setupFlags(rootCmd *cobra.Command, v *viper.Viper, flags *globalFlags) error {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Path to the config file (default: ./mediastore.yaml, ~/.config/mediastore/mediastore.yaml)")
	pf.BoolVar(&flags.printConfig, "print-config", false, "Print the effective configuration as YAML")
	pf.StringVar(&flags.writeConfig, "write-config", "", "Write the effective configuration to this YAML file")
	pf.String("assets-root", "", "Root directory of the asset store")
	pf.String("entities-root", "", "Root directory of the entity store")
	pf.String("log-level", "", "Default log level: trace, debug, info, warn, error")

	bindings := map[string]string{
		"storage.assets.root":   "assets-root",
		"storage.entities.root": "entities-root",
		"logging.default_level": "log-level",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
