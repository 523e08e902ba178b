package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/jqlboard/internal/config"
	"github.com/zjrosen/jqlboard/internal/log"
)

const localConfigPath = ".jqlboard/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool

	// v is rebuilt on every Execute so repeated runs start clean.
	v   *viper.Viper
	cfg config.Config
	// configPath is the file custom queries are saved to and watched from.
	configPath string
	configErr  error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "jqlboard",
	Short: "A terminal dashboard for Jira JQL queries",
	Long: `jqlboard runs catalogued and ad-hoc JQL against Jira Cloud with result
caching, paging and batch loading, and keeps a local execution history.

Without a subcommand an interactive shell is started.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE:              runShell,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/jqlboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also JQLBOARD_DEBUG; path from JQLBOARD_LOG)")
}

func initConfig() {
	v = viper.New()
	config.SetDefaults(v)
	configErr = nil

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .jqlboard/config.yaml (current directory)
		// 2. ~/.config/jqlboard/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else if dir := config.DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No config file anywhere; create the user default.
			defaultPath := userConfigPath()
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				v.SetConfigFile(defaultPath)
				_ = v.ReadInConfig()
			}
		case cfgFile != "" && os.IsNotExist(err):
			// An explicit path that does not exist yet is created on first save.
		default:
			configErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	configPath = v.ConfigFileUsed()
	if configPath == "" {
		configPath = userConfigPath()
	}
}

func userConfigPath() string {
	if dir := config.DefaultConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return localConfigPath
}

// setup enables debug logging and decodes the configuration for every
// command.
func setup(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("JQLBOARD_DEBUG") != "" {
		logPath := os.Getenv("JQLBOARD_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "jqlboard starting", "command", cmd.CommandPath(), "version", version)
	}

	if configErr != nil {
		return configErr
	}
	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func teardown(*cobra.Command, []string) {
	if logCleanup != nil {
		log.Reset()
		logCleanup()
		logCleanup = nil
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}
