package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/eventlink/internal/config"
	"github.com/zjrosen/eventlink/internal/flags"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show or edit the config file",
	Annotations: map[string]string{
		annotationConfigOptional: "true",
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long: `Write the default config to --config, or to ./.eventlink/config.yaml.

An existing file is left alone unless --force is given.`,
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			path = localConfigPath
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", keyStyle.Render(path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

var configSetLogLevelCmd = &cobra.Command{
	Use:   "set-log-level <debug|info|warn|error>",
	Short: "Set log.level in the config file",
	Long: `Set log.level in the config file. Comments and other settings are kept.

A running 'eventlink watch' picks the new level up on save.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.SaveLogLevel(path, args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "log.level = %s in %s\n", args[0], path)
		return nil
	},
}

var configSetFlagCmd = &cobra.Command{
	Use:         "set-flag <name> <true|false>",
	Short:       "Turn a feature flag on or off in the config file",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if flags.Describe(name) == "" {
			return fmt.Errorf("unknown flag %q (see 'eventlink config flags')", name)
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("flag value must be true or false, got %q", args[1])
		}
		path := configPath()
		if err := config.SaveFlag(path, name, enabled); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flags.%s = %t in %s\n", name, enabled, path)
		return nil
	},
}

var configFlagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List the feature flags and their state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		writeFlags(cmd.OutOrStdout(), flagRegistry)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetLogLevelCmd, configSetFlagCmd, configFlagsCmd)
	rootCmd.AddCommand(configCmd)
}

func writeConfig(w io.Writer, c config.Config) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func writeFlags(w io.Writer, r *flags.Registry) {
	for _, name := range flags.Known() {
		state := subtleStyle.Render("off")
		if r.Enabled(name) {
			state = passStyle.Render("on ")
		}
		_, _ = fmt.Fprintf(w, "%s %s %s\n", state, keyStyle.Render(fmt.Sprintf("%-16s", name)), flags.Describe(name))
	}
}
