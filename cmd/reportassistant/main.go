package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aerissecure/reportassistant/config"
	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/logger"
	"github.com/aerissecure/reportassistant/pipeline"
	"github.com/aerissecure/reportassistant/sheet"
	"github.com/aerissecure/reportassistant/xlsx"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reportassistant [master sheet]",
	Short: "Monthly student report generator",
	Long: `reportassistant turns a month of lesson records into one report per student:

  1. Split the master sheet into raw reports.
  2. Format the raw reports and capture them as images.
  3. Generate remarks for students of the remark subjects.
  4. Fill the report template for each student.

Without an argument the master sheet path is asked for on stdin.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath(configPath)
		if err != nil {
			return err
		}
		if cfg, err = config.Load(path); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		if err := logger.Init(level, cfg.Log.File); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runBatch,
}

var htmlCmd = &cobra.Command{
	Use:   "html [raw report]",
	Short: "Print the HTML a raw report is captured from",
	Args:  cobra.ExactArgs(1),
	RunE:  runHTML,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: config.yaml next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(htmlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath defaults to config.yaml in the executable's directory so
// the ReportAssistant_bin folder is found wherever the tool is started from.
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml"), nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "\nNew Channel Report Assistant.")
	fmt.Fprintln(cmd.OutOrStdout())

	input := ""
	if len(args) == 1 {
		input = args[0]
	} else {
		var err error
		if input, err = promptInput(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	runner := &pipeline.Runner{
		Config: cfg,
		Host:   sheet.Excel{},
		Renderer: &xlsx.Snapshotter{
			Bin:      cfg.Render.BrowserBin,
			Headless: cfg.Render.IsHeadless(),
			Timeout:  cfg.Render.Timeout,
		},
		Log: logger.Log,
	}
	res, err := runner.Run(ctx, input)
	if err != nil {
		logger.Log.WithError(err).Error("batch failed")
		return err
	}
	logger.Log.WithField("dir", res.Layout.Final).Infof("%d reports written", len(res.Reports))
	return nil
}

func promptInput(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Select file (.xlsx or .csv): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	// paths dragged into a terminal come quoted
	line = strings.Trim(strings.TrimSpace(line), `"'`)
	if line == "" {
		return "", fmt.Errorf("no master sheet given")
	}
	return line, nil
}

func runHTML(cmd *cobra.Command, args []string) error {
	wb, err := sheet.Excel{}.Open(args[0])
	if err != nil {
		return err
	}
	used, err := sheet.UsedRange(wb, dataset.Columns)
	wb.Close()
	if err != nil {
		return err
	}
	html, _, err := xlsx.RenderFile(args[0], used)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), html)
	return err
}
