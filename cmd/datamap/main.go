// Package main provides the CLI entry point for datamap.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ukaji3/datamap-go/internal/config"
	"github.com/ukaji3/datamap-go/internal/logging"
	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/loader"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/output"
)

var (
	configPath   string
	logLevel     string
	logFormat    string
	showProgress bool

	datamapPath  string
	inputDir     string
	outputPath   string
	reportDir    string
	engine       string
	snapshotPath string
	masterPath   string
	blankPath    string
	outDir       string

	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Overload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datamap",
		Short: "Collect Excel return files into a master using a datamap",
		Long: `datamap reads the cells named in a datamap CSV from a batch of Excel
return files, validates their types, and writes a master workbook. It can
also write a master back out into copies of a blank template.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "Print progress messages to stderr")

	rootCmd.AddCommand(newImportCmd(), newExportCmd(), newCheckCmd(), newStatusCmd())
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if cmd.Flags().Changed("engine") {
		cfg.Extract.Engine = engine
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = logging.WithRunID(logging.Setup(cfg.Logging.Level, cfg.Logging.Format))
	logger.Debug("configuration loaded", "command", cmd.Name(), "engine", cfg.Extract.Engine)
	return nil
}

func pipelineOptions(cmd *cobra.Command) (datamap.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return opts, err
	}
	opts.Logger = logger
	if showProgress {
		opts.Progress = func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}
	}
	return opts, nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [FILES...]",
		Short: "Build a master workbook from return files",
		RunE:  runImport,
	}
	cmd.Flags().StringVar(&datamapPath, "datamap", "", "Datamap CSV file")
	cmd.Flags().StringVar(&inputDir, "input", "", "Directory of return files (instead of FILES)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "master.xlsx", "Master workbook to write")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the validation report")
	cmd.Flags().StringVar(&engine, "engine", "", "Extraction engine: full, container")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write an extraction snapshot to this JSON file")
	_ = cmd.MarkFlagRequired("datamap")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	paths := args
	if inputDir != "" {
		found, err := datamap.FindWorkbooks(inputDir)
		if err != nil {
			return fmt.Errorf("listing %s: %w", inputDir, err)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no return files given")
	}

	opts, err := pipelineOptions(cmd)
	if err != nil {
		return err
	}
	res, err := datamap.Import(cmd.Context(), datamapPath, paths, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if err := output.WriteMaster(res.Master, outputPath, cfg.MasterOptions()); err != nil {
		return fmt.Errorf("failed to write master: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%d keys, %d files)\n", outputPath, len(res.Master.Keys), len(res.Master.Files))
	printExcluded(out, res.Batch.Rejected)

	now := time.Now()
	if reportDir != "" {
		path, err := output.WriteReport(res.Records, reportDir, now)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s (%d records, %d failing)\n", path, len(res.Records), countFailing(res.Records))
	}
	if snapshotPath != "" {
		if err := output.WriteSnapshot(res.Batch, snapshotPath, res.Options, now); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", snapshotPath)
	}
	return nil
}

// printExcluded lists rejected files by name.
func printExcluded(w io.Writer, rejected map[string][]string) {
	names := make([]string, 0, len(rejected))
	for name := range rejected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "Excluded %s: missing sheets %v\n", name, rejected[name])
	}
}

func countFailing(records []models.ValidationRecord) int {
	n := 0
	for _, r := range records {
		if r.Outcome == models.OutcomeFail {
			n++
		}
	}
	return n
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write each master column into a copy of the blank template",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	cmd.Flags().StringVar(&datamapPath, "datamap", "", "Datamap CSV file")
	cmd.Flags().StringVar(&masterPath, "master", "", "Master workbook to read")
	cmd.Flags().StringVar(&blankPath, "blank", "", "Blank template workbook")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "Directory for populated templates")
	for _, name := range []string{"datamap", "master", "blank"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := pipelineOptions(cmd)
	if err != nil {
		return err
	}
	entries, err := loader.Load(datamapPath, loader.Options{Progress: opts.Progress, Logger: logger})
	if err != nil {
		return err
	}
	master, err := output.ReadMaster(masterPath)
	if err != nil {
		return fmt.Errorf("failed to read master: %w", err)
	}

	sink := output.BlankTemplate{Path: blankPath, OutDir: outDir}
	written, err := datamap.Distribute(entries, master, sink, opts)
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check DATAMAP",
		Short: "Load a datamap and report what it declares",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	entries, err := loader.Load(args[0], loader.Options{Logger: logger})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d entries\n", args[0], len(entries))
	maxRows := loader.MaxRows(entries)
	for _, sheet := range loader.Sheets(entries) {
		fmt.Fprintf(out, "  %s (rows up to %d)\n", sheet, maxRows[sheet])
	}
	untyped := 0
	for _, e := range entries {
		if t, ok := e.DeclaredType(); !ok || !t.Known() {
			untyped++
		}
	}
	if untyped > 0 {
		fmt.Fprintf(out, "  %d entries have no checkable type\n", untyped)
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status FILES...",
		Short: "Report which return files changed since a snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStatus,
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Snapshot JSON written by import")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := output.ReadSnapshot(snapshotPath)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cmd)
	if err != nil {
		return err
	}
	ext, err := snap.Options(opts).NewExtractor()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		st, err := fileStatus(snap, ext, path)
		if err != nil {
			return err
		}
		switch st.state {
		case stateNew:
			fmt.Fprintf(out, "new       %s\n", path)
		case stateUnchanged:
			fmt.Fprintf(out, "unchanged %s\n", path)
		default:
			fmt.Fprintf(out, "changed   %s (%d cells differ)\n", path, st.changed)
		}
	}
	return nil
}
