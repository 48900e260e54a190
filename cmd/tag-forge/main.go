// Package main provides the tag-forge binary: train, evaluate, and
// predict for the multi-label tagging pipeline.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tagforge/tag-forge/internal/config"
	"github.com/tagforge/tag-forge/internal/pipeline"
	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
	"github.com/tagforge/tag-forge/internal/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tag-forge",
		Short: "Tag Forge - multi-label tagging pipeline",
		Long: `Tag Forge fits one-vs-rest logistic regression taggers over numeric
feature vectors and reports how well they hold up on a validation split.

Run 'tag-forge train' to fit a model and write its evaluation report.
Run 'tag-forge --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	rootCmd.AddCommand(
		trainCmd(),
		evaluateCmd(),
		predictCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCodeOf(err))
	}
}

// setup loads the configuration and builds the logger every command
// shares. Logs go to stderr; stdout belongs to the report.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFormat, _ := cmd.Flags().GetString("log-format")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	format := cfg.Log.Format
	if logFormat != "" {
		format = logFormat
	}

	return cfg, logger.New(level, format), nil
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the tagger and report validation metrics",
		Long: `Fit one logistic regression model per label on the training split,
score the validation split, and write the metrics report plus the model
and vocabulary artifacts.

The report is printed to stdout and stored in the output directory.`,
		RunE: runTrain,
	}

	cmd.Flags().String("train-file", "", "training split (JSONL)")
	cmd.Flags().String("validation-file", "", "validation split (JSONL)")
	cmd.Flags().String("vocabulary-file", "", "explicit label vocabulary (JSON array)")
	cmd.Flags().String("output-dir", "", "directory for the report and artifacts")
	cmd.Flags().String("penalty", "", "regularization penalty (l1, l2)")
	cmd.Flags().Float64("c", 0, "inverse regularization strength")
	cmd.Flags().Int("max-iterations", 0, "solver iteration cap")
	cmd.Flags().Int("parallelism", 0, "concurrent label fits (0 = all CPUs)")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	// Flags override config
	if v, _ := cmd.Flags().GetString("train-file"); v != "" {
		cfg.Data.TrainFile = v
	}
	if v, _ := cmd.Flags().GetString("validation-file"); v != "" {
		cfg.Data.ValidationFile = v
	}
	if v, _ := cmd.Flags().GetString("vocabulary-file"); v != "" {
		cfg.Data.VocabularyFile = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.Output.Dir = v
	}
	if v, _ := cmd.Flags().GetString("penalty"); v != "" {
		cfg.Train.Penalty = v
	}
	if cmd.Flags().Changed("c") {
		cfg.Train.C, _ = cmd.Flags().GetFloat64("c")
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Train.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Train.Parallelism, _ = cmd.Flags().GetInt("parallelism")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting training run",
		"version", version,
		"train_file", cfg.Data.TrainFile,
		"validation_file", cfg.Data.ValidationFile,
	)

	res, err := pipeline.New(cfg, log).Train(ctx)
	if err != nil {
		return err
	}

	fmt.Print(res.Report.Render())
	return nil
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a stored model against a labeled split",
		Long: `Load the persisted model and vocabulary artifacts, score them against
the validation split, and write the metrics report.

The report is printed to stdout and stored in the output directory.`,
		RunE: runEvaluate,
	}

	cmd.Flags().String("validation-file", "", "validation split (JSONL)")
	cmd.Flags().String("output-dir", "", "directory holding the artifacts and report")

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("validation-file"); v != "" {
		cfg.Data.ValidationFile = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.Output.Dir = v
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting evaluation run",
		"version", version,
		"validation_file", cfg.Data.ValidationFile,
	)

	res, err := pipeline.New(cfg, log).Evaluate(ctx)
	if err != nil {
		return err
	}

	fmt.Print(res.Report.Render())
	return nil
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <input-file>",
		Short: "Tag new examples with a stored model",
		Long: `Load the persisted model and vocabulary artifacts, predict a label set
for every row of the input file, and write them as JSONL in row order.`,
		Args: cobra.ExactArgs(1),
		RunE: runPredict,
	}

	cmd.Flags().String("output-dir", "", "directory holding the artifacts and predictions")

	return cmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.Output.Dir = v
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting prediction run", "version", version, "input_file", args[0])

	res, err := pipeline.New(cfg, log).Predict(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d predictions to %s\n", res.Examples, res.PredictionsPath)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tag-forge %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
