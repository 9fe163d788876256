package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sql-optimizer",
	Short: "A SQL query optimization advisor",
	Long: `SQL Optimizer is a command-line tool that analyzes SQL queries and
suggests optimizations: index-friendly predicates, explicit joins, bounded
result sets and more.

It reports a complexity score and execution-plan tips for MySQL, PostgreSQL,
Oracle, SQL Server, SQLite and generic SQL, and can run as an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sql-optimizer.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format (text, json, console)")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated by size")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sql-optimizer" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sql-optimizer")
	}

	viper.SetEnvPrefix("SQL_OPTIMIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// A missing config file is fine; everything has a default.
	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			slog.Warn("Config file error (ignoring)", "file", cfgFile, "error", err)
		}
	}
}

// newLogger builds the process logger from flags, env and config file and makes it
// the slog default.
func newLogger() *logger.Logger {
	level := logger.ParseLevel(viper.GetString("log.level"))
	if viper.GetBool("verbose") && level > slog.LevelInfo {
		level = slog.LevelInfo
	}
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}

	l := logger.New(logger.Options{
		Level:      level,
		Format:     viper.GetString("log.format"),
		File:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAgeDays: viper.GetInt("log.max_age_days"),
	})
	slog.SetDefault(l.GetSlogLogger())

	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("Using config file", "file", used)
	}
	return l
}

// loadConfig returns the rules configuration: the --rules file when given, else the
// config file viper found, else defaults.
func loadConfig(rulesFile string) (*config.Config, error) {
	path := rulesFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		path = config.FindFile()
	}
	if path == "" {
		slog.Debug("No config file found, using defaults")
		return config.DefaultConfig("default"), nil
	}
	return config.LoadFromFile(path)
}
