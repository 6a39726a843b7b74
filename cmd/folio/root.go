package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/folio"
)

var (
	cfgFile   string
	logFormat string
	siteCfg   folio.SiteConfig
	logger    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - portfolio site server with a blog API and contact form",
	Long: `folio serves a single-page portfolio site, a JSON API over its blog posts,
and a multi-step contact form whose submissions are never lost.

Configuration is read from folio.yaml, FOLIO_* environment variables and a
.env file in the working directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return initializeConfig(cmd)
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./folio.yaml)")
	rootCmd.PersistentFlags().String("content", "", "post source: JSON file or markdown directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log output: console or json")

	rootCmd.AddCommand(serveCmd, postsCmd, indexCmd, newCmd, pendingCmd)
}

// configDefaults mirrors SiteConfig.setDefaults so every key is known to
// viper and can be overridden from the environment.
var configDefaults = map[string]interface{}{
	"name":            "Portfolio",
	"url":             "http://localhost:3000",
	"description":     "",
	"author":          "",
	"addr":            ":3000",
	"content_path":    "content/blog",
	"static_dir":      "public",
	"include_drafts":  false,
	"watch_content":   false,
	"projects_path":   "content/projects.json",
	"webhook_url":     "",
	"webhook_timeout": 10 * time.Second,
	"pending_db_path": "data/pending.db",
	"session_secret":  "",
	"cookie_secure":   false,
	"allowed_origins": []string{},
	"log_level":       "info",
}

func initializeConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range configDefaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("content_path", flags.Lookup("content")); err != nil {
		return err
	}
	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return err
	}

	configErr := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if configErr != nil && !errors.As(configErr, &notFound) {
		return fmt.Errorf("read config: %w", configErr)
	}

	if err := v.Unmarshal(&siteCfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	logger = newLogger(siteCfg.LogLevel, logFormat)
	log.Logger = logger
	if used := v.ConfigFileUsed(); used != "" && configErr == nil {
		logger.Debug().Str("file", used).Msg("config loaded")
	}
	return nil
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if format == "json" {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l.Level(lvl).With().Timestamp().Logger()
}
