package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nikogura/notion-enum/pkg/codegen"
	"github.com/nikogura/notion-enum/pkg/config"
	"github.com/nikogura/notion-enum/pkg/generator"
	"github.com/nikogura/notion-enum/pkg/notion"
	"github.com/nikogura/notion-enum/pkg/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var enumName string

//nolint:gochecknoglobals // Cobra boilerplate
var derives []string

//nolint:gochecknoglobals // Cobra boilerplate
var outputFile string

//nolint:gochecknoglobals // Cobra boilerplate
var toStdout bool

//nolint:gochecknoglobals // Cobra boilerplate
var generateDocs bool

//nolint:gochecknoglobals // Cobra boilerplate
var generateDisplay bool

//nolint:gochecknoglobals // Cobra boilerplate
var visibility string

//nolint:gochecknoglobals // Cobra boilerplate
var concurrency int

//nolint:gochecknoglobals // Cobra boilerplate
var timeout time.Duration

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate <database-id>",
	Short: "Generate a Rust enum from a Notion database",
	Long: `Generate a Rust enum with one variant per record of a Notion database.

Variant names are the record titles with each word capitalised and the
spaces removed. The enum is named after the database unless --name is given,
and is written to <name>.rs (lowercased, spaces as underscores) unless
--output-file or --stdout is used.

Flags not given on the command line fall back to the "defaults" section of
the config file.

Example:
  notion-enum generate 1a2b3c4d --derive Debug,Clone --generate-docs
  notion-enum generate 1a2b3c4d --name "Steam Achievements" --generate-display --stdout
  notion-enum generate 1a2b3c4d -o src/achievements.rs --visibility "pub(crate)"`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&enumName, "name", "n", "", "Enum name (database title if not provided)")
	generateCmd.Flags().StringSliceVar(&derives, "derive", nil, "Traits to derive, repeatable or comma-separated (e.g. Debug,Clone)")
	generateCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "Output file (default <enum_name>.rs)")
	generateCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write generated code to stdout instead of a file")
	generateCmd.Flags().BoolVar(&generateDocs, "generate-docs", false, "Add doc comments from each record's page content")
	generateCmd.Flags().BoolVar(&generateDisplay, "generate-display", false, "Implement Display returning each record's title")
	generateCmd.Flags().StringVar(&visibility, "visibility", "", `Enum visibility, e.g. "pub" or "pub(crate)"; empty for private (default from config, private if unset)`)
	generateCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent description fetches (default from config)")
	generateCmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	databaseID := args[0]

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	opts := generateOptions(cmd, databaseID, cfg)

	runTimeout := cfg.Timeout()
	if cmd.Flags().Changed("timeout") {
		if timeout <= 0 {
			err = errors.Errorf("--timeout must be positive, got %s", timeout)
			return err
		}
		runTimeout = timeout
	}

	if opts.Concurrency < 1 {
		err = errors.Errorf("--concurrency must be at least 1, got %d", opts.Concurrency)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	client := notion.NewClient(cfg.NotionAPIKey, notion.Options{
		Version:           cfg.NotionVersion,
		BaseURL:           cfg.BaseURL,
		TitleProperty:     cfg.TitleProperty,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	g := generator.New(client, logger)

	// Show progress while fetching descriptions, unless debug logs are already streaming
	if opts.GenerateDocs && !getVerbose() {
		spin := newSpinner(os.Stderr, "Fetching descriptions")
		g.OnProgress = func(done, total int) {
			spin.setMessage(fmt.Sprintf("Fetching descriptions (%d/%d)", done, total))
			spin.start()
			if done == total {
				spin.stopSpinner()
			}
		}
		defer spin.stopSpinner()
	}

	logger.Debugw("starting generation",
		"database_id", databaseID,
		"enum", opts.EnumName,
		"docs", opts.GenerateDocs,
		"display", opts.GenerateDisplay,
		"concurrency", opts.Concurrency,
	)

	_, err = g.Run(ctx, opts, func(rawName string) output.Sink {
		return output.Select(toStdout, os.Stdout, outputFile, rawName, codegen.FileExtension)
	})
	if err != nil {
		err = errors.Wrapf(err, "failed to generate enum from database %s", databaseID)
		return err
	}

	return err
}

// generateOptions merges command line flags over the config defaults.
func generateOptions(cmd *cobra.Command, databaseID string, cfg config.Config) (opts generator.Options) {
	flags := cmd.Flags()

	opts = generator.Options{
		DatabaseID:      databaseID,
		EnumName:        enumName,
		Derives:         cfg.Defaults.Derives,
		Visibility:      cfg.Defaults.Visibility,
		GenerateDocs:    cfg.Defaults.GenerateDocs,
		GenerateDisplay: cfg.Defaults.GenerateDisplay,
		Concurrency:     cfg.Concurrency,
	}

	if flags.Changed("derive") {
		opts.Derives = derives
	}
	if flags.Changed("visibility") {
		opts.Visibility = visibility
	}
	if flags.Changed("generate-docs") {
		opts.GenerateDocs = generateDocs
	}
	if flags.Changed("generate-display") {
		opts.GenerateDisplay = generateDisplay
	}
	if flags.Changed("concurrency") {
		opts.Concurrency = concurrency
	}

	return opts
}
