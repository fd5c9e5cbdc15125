package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookfinder/internal/config"
	"github.com/listenupapp/bookfinder/internal/di/providers"
	"github.com/listenupapp/bookfinder/internal/logger"
)

var (
	outputFormat string
	backendMode  string
	searchURL    string
	taxonomyURL  string
	catalogPath  string
	logLevel     string
	envFile      string
)

var rootCmd = &cobra.Command{
	Use:   "booksearch",
	Short: "Search books by title, page count and genre",
	Long: `booksearch loads the genre taxonomy and runs book searches the same way
a bookfinder session does, printing the results as yaml or json.

Backends:
  - catalog   built-in bleve index (default), or a seed file via --catalog-path
  - upstream  remote GraphQL search endpoint and taxonomy URL`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return SetOutputFormat(outputFormat)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	flags.StringVar(&backendMode, "backend", "", "search backend: upstream or catalog (default: catalog)")
	flags.StringVar(&searchURL, "search-url", "", "GraphQL search endpoint URL")
	flags.StringVar(&taxonomyURL, "taxonomy-url", "", "genre taxonomy endpoint URL")
	flags.StringVar(&catalogPath, "catalog-path", "", "catalog seed JSON (default: built-in)")
	flags.StringVar(&logLevel, "log-level", "warn", "log level for stderr diagnostics")
	flags.StringVar(&envFile, "env-file", ".env", "path to .env file")

	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(searchCmd)
}

// configArgs turns the persistent flags into config flags so the usual
// flag > env > .env > default precedence applies.
func configArgs() []string {
	args := []string{"-env-file", envFile, "-log-level", logLevel}
	add := func(name, value string) {
		if value != "" {
			args = append(args, "-"+name, value)
		}
	}
	add("backend", backendMode)
	add("search-url", searchURL)
	add("taxonomy-url", taxonomyURL)
	add("catalog-path", catalogPath)
	return args
}

// openBackend loads configuration and opens the selected backend. The caller
// shuts the backend down.
func openBackend() (*providers.Backend, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configArgs())
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Format:      logger.FormatPretty,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})

	backend, err := providers.NewBackend(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", cfg.Backend.Mode, err)
	}
	return backend, log, nil
}
