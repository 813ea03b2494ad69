package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var logger = zap.NewNop().Sugar()

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "notion-enum",
	Short: "Generate Rust enums from Notion databases",
	Long: `notion-enum turns the records of a Notion database into a Rust enum:
one variant per record, named after the record's title.

Variants can carry documentation taken from each record's page content, and
the enum can get a Display implementation returning the original titles.

Requires a Notion integration token in NOTION_API_KEY or the config file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.notion-enum/config.json)")
}

// setupLogger builds the stderr logger so generated code on stdout stays clean.
func setupLogger(cmd *cobra.Command, args []string) (err error) {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.DisableStacktrace = true
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if getVerbose() {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var base *zap.Logger
	base, err = zapConfig.Build()
	if err != nil {
		err = errors.Wrap(err, "failed to build logger")
		return err
	}

	logger = base.Sugar()
	return err
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}
