package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nsxbet/sql-optimizer/pkg/analyzer"
	"github.com/nsxbet/sql-optimizer/pkg/cache"
	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/logger"
	"github.com/nsxbet/sql-optimizer/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	Long: `Serve the analyzer over HTTP.

POST /analyze accepts {"query": "...", "dialect": "..."} and returns the
analysis result. The rule configuration is reloaded when the config file
changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().Bool("cache", false, "cache results in Redis")
	serveCmd.Flags().String("cache-addr", config.DefaultCacheAddr, "Redis address")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("cache.enabled", serveCmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("cache.addr", serveCmd.Flags().Lookup("cache-addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer log.Close()

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	if err := cfg.Validate(typeNames()); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	applyServeOverrides(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{
		server.WithConfig(cfg.Server),
		server.WithLogger(log.GetSlogLogger()),
	}
	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache, log.GetSlogLogger())
		if err != nil {
			return err
		}
		defer c.Close()
		opts = append(opts, server.WithCache(c))
	}

	srv := server.New(newServeAnalyzer(cfg, log), opts...)

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			reloaded, err := config.LoadFromFile(e.Name)
			if err == nil {
				err = reloaded.Validate(typeNames())
			}
			if err != nil {
				slog.Warn("Config reload failed, keeping current rules", "file", e.Name, logger.Error(err))
				return
			}
			srv.SetAnalyzer(newServeAnalyzer(reloaded, log))
			slog.Info("Config reloaded", "file", e.Name, "rules", len(srv.Analyzer().Rules()))
		})
		viper.WatchConfig()
	}

	return srv.ListenAndServe(ctx)
}

// applyServeOverrides lets flags and SQL_OPTIMIZER_ env variables override the
// server and cache sections of the file.
func applyServeOverrides(cfg *config.Config) {
	if viper.IsSet("server.addr") {
		cfg.Server.Addr = viper.GetString("server.addr")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.addr") {
		cfg.Cache.Addr = viper.GetString("cache.addr")
	}
}

func newServeAnalyzer(cfg *config.Config, log *logger.Logger) *analyzer.Analyzer {
	return analyzer.New(
		analyzer.WithConfigObject(cfg),
		analyzer.WithLogger(log.GetSlogLogger()),
	)
}
