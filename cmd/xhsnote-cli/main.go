package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/use-agent/xhsnote/browsercookie"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/models"
	"github.com/use-agent/xhsnote/note"
	"github.com/use-agent/xhsnote/scraper"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitFailed       = 1
	ExitInvalidInput = 2
	ExitNotFound     = 3
)

type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "xhsnote-cli",
	Short:         "Extract Xiaohongshu (RED) notes from the command line",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Render a note link and print the extracted note as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/xhsnote/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log pipeline progress to stderr")

	f := extractCmd.Flags()
	f.String("cookie", "", `raw Cookie header from a logged-in session ("a=1; b=2")`)
	f.String("browser-cookies", "", "read the session from a local browser (auto|chrome|firefox|safari|edge)")
	f.String("mode", scraper.ModeBrowser, "render mode (browser|http)")
	f.Duration("timeout", 30*time.Second, "navigation timeout")
	f.Duration("settle", 3*time.Second, "delay after load before reading the page")
	f.Bool("pretty", true, "indent JSON output")

	for _, name := range []string{"cookie", "browser-cookies", "mode", "timeout", "settle", "pretty"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(extractCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			if home, err := os.UserHomeDir(); err == nil {
				configHome = filepath.Join(home, ".config")
			}
		}
		if configHome != "" {
			viper.AddConfigPath(filepath.Join(configHome, "xhsnote"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("XHS_CLI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// applyOverrides copies explicitly set flags, CLI env vars and config file
// keys over the server-style env config. Flag defaults never override.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("mode") {
		cfg.Scraper.RenderMode = v.GetString("mode")
	}
	if v.IsSet("timeout") {
		cfg.Scraper.NavigationTimeout = v.GetDuration("timeout")
	}
	if v.IsSet("settle") {
		cfg.Scraper.SettleDelay = v.GetDuration("settle")
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// ── 1. Configuration: env defaults, then file and flags ─────────
	cfg := config.Load()
	applyOverrides(cfg, viper.GetViper())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// ── 2. Session ──────────────────────────────────────────────────
	cookie := viper.GetString("cookie")
	if b := viper.GetString("browser-cookies"); b != "" && cookie == "" {
		cookie = browsercookie.Header(ctx, browsercookie.Browser(strings.ToLower(b)), cfg.Site.CookieDomain)
		slog.Info("loaded browser session", "browser", b, "cookies", len(note.BuildSession(cookie)))
	}

	// ── 3. Renderer + pipeline ──────────────────────────────────────
	renderer, err := scraper.New(cfg)
	if err != nil {
		return &exitErr{code: ExitFailed, err: err}
	}
	defer renderer.Close()

	x, err := extractor.FromConfig(renderer, cfg)
	if err != nil {
		return &exitErr{code: ExitInvalidInput, err: err}
	}

	res, err := x.Extract(ctx, &models.ExtractRequest{URL: args[0], Cookie: cookie})

	// ── 4. Output ───────────────────────────────────────────────────
	resp := models.ExtractResponse{Success: err == nil}
	if err != nil {
		var xerr *models.ExtractError
		code := ExitFailed
		if errors.As(err, &xerr) {
			resp.Error, resp.Code = xerr.Message, xerr.Code
			switch xerr.Code {
			case models.ErrCodeInvalidInput:
				code = ExitInvalidInput
			case models.ErrCodeEmptyResult:
				code = ExitNotFound
			}
		} else {
			resp.Error = "extraction failed"
		}
		if werr := writeJSON(cmd.OutOrStdout(), resp, viper.GetBool("pretty")); werr != nil {
			return werr
		}
		return &exitErr{code: code, err: err}
	}

	resp.Data = res.Record
	resp.Timing = &models.TimingInfo{RenderMs: res.RenderMs, EvaluationMs: res.EvaluationMs}
	return writeJSON(cmd.OutOrStdout(), resp, viper.GetBool("pretty"))
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
