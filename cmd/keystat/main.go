// Package main provides the CLI entrypoint for keystat.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keystat/internal/config"
	"github.com/verte-zerg/keystat/internal/keybr"
	"github.com/verte-zerg/keystat/internal/model"
	"github.com/verte-zerg/keystat/internal/report"
	"github.com/verte-zerg/keystat/internal/stats"
	"github.com/verte-zerg/keystat/internal/statsui"
	"github.com/verte-zerg/keystat/internal/store"
	"github.com/verte-zerg/keystat/internal/training"
)

const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"

	defaultWidth = 100
)

var (
	reportSource    string
	reportFile      string
	reportDir       string
	reportDB        string
	reportShowAll   bool
	reportTUI       bool
	reportWPMCap    float64
	reportThreshold []float64
	reportColor     string
	reportVerbose   bool

	keysTextTypes []string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultReport()
	rootCmd := &cobra.Command{
		Use:           "keystat",
		Short:         "Typing statistics for keybr and tuipe sessions",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runReportCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&reportSource, "source", defaults.Source, "session source: keybr or tuipe")
	flags.StringVar(&reportFile, "file", "", "keybr export file (or directory to search)")
	flags.StringVar(&reportDir, "dir", "", "directory searched for keybr exports")
	flags.StringVar(&reportDB, "db", defaults.DBPath, "tuipe database path")
	flags.BoolVar(&reportShowAll, "all", false, "show every section and table")
	flags.Float64Var(&reportWPMCap, "all-wpm-cap", 0, "cap all-time per-key WPM (0 disables)")
	flags.Float64SliceVar(&reportThreshold, "threshold", defaults.Thresholds, "accuracy streak thresholds")
	flags.StringVar(&reportColor, "color", colorAuto, "colour output: auto, always or never")
	flags.BoolVar(&reportVerbose, "verbose", false, "log diagnostics to stderr")
	rootCmd.Flags().BoolVar(&reportTUI, "tui", false, "browse the report in an interactive viewer")

	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newStreaksCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadReportConfig merges defaults, the config file and explicitly set flags.
func loadReportConfig(cmd *cobra.Command) (model.ReportConfig, error) {
	setupLogging(os.Stderr, reportVerbose)

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.ReportConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.DefaultReport()
	fileCfg.Report.Merge(&cfg)

	applyStringFlag(cmd, "source", &cfg.Source, reportSource)
	applyStringFlag(cmd, "file", &cfg.DataFile, reportFile)
	applyStringFlag(cmd, "dir", &cfg.SourceDir, reportDir)
	applyStringFlag(cmd, "db", &cfg.DBPath, reportDB)
	applyBoolFlag(cmd, "all", &cfg.ShowAll, reportShowAll)
	applyFloatFlag(cmd, "all-wpm-cap", &cfg.AllWPMCap, reportWPMCap)
	if cmd.Flags().Changed("threshold") {
		cfg.Thresholds = append([]float64(nil), reportThreshold...)
	}

	if err := config.Validate(cfg); err != nil {
		return model.ReportConfig{}, err
	}
	if err := validateColor(reportColor); err != nil {
		return model.ReportConfig{}, err
	}
	slog.Debug("config: resolved", "source", cfg.Source, "file", cfg.DataFile, "dir", cfg.SourceDir, "db", cfg.DBPath)
	return cfg, nil
}

func reportOptions(cfg model.ReportConfig, w io.Writer) report.Options {
	return report.Options{
		ShowAll:    cfg.ShowAll,
		Color:      resolveColor(reportColor, w),
		AllWPMCap:  cfg.AllWPMCap,
		Thresholds: cfg.Thresholds,
		Keys:       training.NewKeys(cfg.OpenedKeys, cfg.FocusKeys, cfg.LockedKeys),
		Width:      report.TerminalWidth(defaultWidth),
	}
}

func resolveColor(mode string, w io.Writer) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		return report.ShouldUseColor(w)
	}
}

func validateColor(mode string) error {
	switch mode {
	case colorAuto, colorAlways, colorNever:
		return nil
	}
	return fmt.Errorf("--color must be %q, %q or %q", colorAuto, colorAlways, colorNever)
}

// loadSessions reads every session from the configured source.
func loadSessions(cmd *cobra.Command, cfg model.ReportConfig) ([]model.Session, error) {
	switch cfg.Source {
	case config.SourceTuipe:
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		sessions, err := st.ListSessions(cmd.Context(), store.Query{})
		if err != nil {
			return nil, fmt.Errorf("failed to load sessions: %w", err)
		}
		return sessions, nil
	default:
		path, err := keybr.FindLatest(cfg.DataFile, cfg.SourceDir, config.DefaultDownloadsDir())
		if err != nil {
			if errors.Is(err, keybr.ErrNoExport) {
				logErrln("Export your history from keybr.com (Profile > Download data) or pass --file.")
			}
			return nil, err
		}
		return keybr.LoadFile(path)
	}
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadReportConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := loadSessions(cmd, cfg)
	if err != nil {
		return err
	}

	if reportTUI {
		opts := reportOptions(cfg, os.Stdout)
		program := tea.NewProgram(statsui.NewModel(sessions, opts), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	opts := reportOptions(cfg, out)
	data, err := report.Build(sessions, opts)
	if err != nil {
		return err
	}
	return report.Render(out, data, opts)
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Show the performance table for every key",
		Args:  cobra.NoArgs,
		RunE:  runKeysCmd,
	}
	cmd.Flags().StringSliceVar(&keysTextTypes, "text-type", nil, "limit to sessions of these text types")
	return cmd
}

func runKeysCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadReportConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := loadSessions(cmd, cfg)
	if err != nil {
		return err
	}
	cfg.ShowAll = true

	out := cmd.OutOrStdout()
	opts := reportOptions(cfg, out)
	data, err := report.Build(sessions, opts)
	if err != nil {
		return err
	}
	if len(keysTextTypes) > 0 {
		subset := stats.SelectByText(sessions, keysTextTypes...)
		if len(subset) == 0 {
			return fmt.Errorf("no sessions with text type %s", strings.Join(keysTextTypes, ", "))
		}
		slog.Debug("keys: filtered by text type", "types", keysTextTypes, "sessions", len(subset))
		data.Keys = stats.AnalyzeKeys(subset, data.Latest, stats.KeyOptions{AllWPMCap: cfg.AllWPMCap})
	}
	return report.RenderSections(out, data, opts, report.SectionAllKeys)
}

func newStreaksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streaks",
		Short: "Show accuracy streaks",
		Args:  cobra.NoArgs,
		RunE:  runStreaksCmd,
	}
}

func runStreaksCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadReportConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := loadSessions(cmd, cfg)
	if err != nil {
		return err
	}
	return renderSections(cmd, cfg, sessions, report.SectionStreaks)
}

func renderSections(cmd *cobra.Command, cfg model.ReportConfig, sessions []model.Session, sections ...report.Section) error {
	out := cmd.OutOrStdout()
	opts := reportOptions(cfg, out)
	data, err := report.Build(sessions, opts)
	if err != nil {
		return err
	}
	return report.RenderSections(out, data, opts, sections...)
}

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List discovered keybr export files, newest first",
		Args:  cobra.NoArgs,
		RunE:  runFilesCmd,
	}
}

func runFilesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadReportConfig(cmd)
	if err != nil {
		return err
	}
	dirs := []string{cfg.SourceDir, config.DefaultDownloadsDir()}
	if cfg.DataFile != "" {
		if info, err := os.Stat(cfg.DataFile); err == nil && info.IsDir() {
			dirs = append([]string{cfg.DataFile}, dirs...)
		}
	}

	out := cmd.OutOrStdout()
	found := 0
	seen := map[string]struct{}{}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		exports, err := keybr.ListExports(dir)
		if err != nil {
			slog.Debug("files: skipping search path", "dir", dir, "err", err)
			continue
		}
		for _, exp := range exports {
			line := fmt.Sprintf("%s  %8s  %s", exp.ModTime.Format("2006-01-02 15:04"), humanize.Bytes(uint64(exp.Size)), exp.Path)
			if _, err := fmt.Fprintln(out, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			found++
		}
	}
	if found == 0 {
		return keybr.ErrNoExport
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	defaults := config.DefaultReport()
	return fmt.Sprintf(`# keystat configuration
# Uncomment a value to enable it. CLI flags override config values.

[report]
# source = %q            # Session source: "keybr" or "tuipe"
# data-file = ""            # keybr export file or directory to search
# source-dir = ""           # Directory searched for keybr exports
# db = %q
# show-all = false          # Show every section and table
# all-wpm-cap = 0.0         # Cap all-time per-key WPM (0 disables)
# thresholds = %s
# opened-keys = %s
# focus-keys = %s

# [report.locked-keys]
%s`,
		defaults.Source,
		defaults.DBPath,
		tomlFloats(defaults.Thresholds),
		tomlStrings(defaults.OpenedKeys),
		tomlStrings(defaults.FocusKeys),
		lockedKeysTemplate(defaults.LockedKeys),
	)
}

// lockedKeysTemplate writes one commented line per tier, ordered by label.
func lockedKeysTemplate(locked map[string][]string) string {
	tiers := make([]string, 0, len(locked))
	for tier := range locked {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	var b strings.Builder
	for _, tier := range tiers {
		fmt.Fprintf(&b, "# %q = %s\n", tier, tomlStrings(locked[tier]))
	}
	return b.String()
}

func tomlStrings(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func tomlFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}

func logErrln(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
}
