package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/eventlink/internal/config"
	"github.com/zjrosen/eventlink/internal/flags"
	"github.com/zjrosen/eventlink/internal/log"
	"github.com/zjrosen/eventlink/internal/tracing"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".eventlink/config.yaml"

// annotationConfigOptional marks commands that still run when the config
// file is invalid, so it can be repaired.
const annotationConfigOptional = "config-optional"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	logFile   string

	cfg          config.Config
	cfgErr       error
	flagRegistry *flags.Registry
	runID        string
	logCleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "eventlink",
	Short: "Exercise a bidirectional event registry",
	Long: `eventlink drives handlers and listeners that know about each other.

Listeners can join, leave, move or be copied while a handler is dispatching;
every change made during a pass takes effect once the pass finishes.

Commands:
  demo    run the self-checking registry scenarios
  fsm     run a traffic-light state machine
  tree    tick a small behaviour tree
  watch   reload the config file on change
  config  create or edit the config file`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.eventlink/config.yaml, then ~/.config/eventlink/config.yaml)")
	pf.BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also enabled by EVENTLINK_DEBUG)")
	pf.StringVar(&logFile, "log-file", "",
		"debug log path (default: log.file from config)")
	pf.String("log-level", "",
		"minimum debug log level: debug, info, warn, error")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("EVENTLINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .eventlink/config.yaml (current directory)
		// 2. ~/.config/eventlink/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "eventlink"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing file means defaults; anything else is reported by setup.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			cfg, cfgErr = config.Defaults(), fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, cfgErr = config.Decode(viper.GetViper())
	if cfgErr != nil {
		cfg = config.Defaults()
	}
}

// setup runs before every command: it reports config errors, starts the
// debug log and assigns the run ID.
func setup(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil && cmd.Annotations[annotationConfigOptional] == "" {
		return cfgErr
	}
	flagRegistry = flags.New(cfg.Flags)

	if debugFlag || os.Getenv("EVENTLINK_DEBUG") != "" {
		path := logFile
		if path == "" {
			path = cfg.Log.File
		}
		cleanup, err := log.Init(path)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup

		level, _ := log.ParseLevel(cfg.Log.Level)
		log.SetMinLevel(level)
	}

	runID = tracing.NewRunID()
	log.Info(log.CatCLI, "eventlink starting",
		"command", cmd.CommandPath(),
		"run_id", runID,
		"config", viper.ConfigFileUsed(),
		"version", version)
	return nil
}

func teardown(cmd *cobra.Command, _ []string) {
	log.Debug(log.CatCLI, "Command finished", "command", cmd.CommandPath(), "run_id", runID)
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
}

// configPath returns the file config edits are written to: the loaded file,
// or the local default when nothing was loaded.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used
		}
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
