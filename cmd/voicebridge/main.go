package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/app"
	"github.com/leonardotrapani/voicebridge/internal/bus"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/daemon"
	"github.com/leonardotrapani/voicebridge/internal/deps"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// translations can take a while: capture, download, recognition, retries
const translateTimeout = 3 * time.Minute

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "voicebridge",
	Short:        "Transcribe and translate voice messages",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/voicebridge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override general.log_level")

	rootCmd.AddCommand(
		serveCmd(),
		translateCmd(),
		transcribeCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		cacheCmd(),
		configureCmd(),
		modelCmd(),
		depsCmd(),
		testModelsCmd(),
	)
}

// loadConfig reads the config file, falling back to defaults when there is
// none, and builds a logger at the configured level.
func loadConfig() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, log, nil
}

func readConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.LoadFile(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.Defaults()
	}
	return cfg, err
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.General.LogLevel
	}
	return logging.New(level)
}

func endpoint() (bus.Endpoint, error) {
	ep, err := bus.DefaultEndpoint()
	if err != nil {
		return bus.Endpoint{}, fmt.Errorf("resolve daemon socket: %w", err)
	}
	return ep, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			boot, err := newLogger(nil)
			if err != nil {
				return err
			}
			mgr, err := config.NewManager(configPath, boot)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := mgr.GetConfig()
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := app.New(cfg, mgr.GetConfig, log)
			if err != nil {
				return fmt.Errorf("failed to create pipeline: %w", err)
			}
			ep, err := endpoint()
			if err != nil {
				return err
			}

			d := daemon.New(a.Pipeline, daemon.Options{
				Endpoint: ep,
				Config:   mgr,
				Notifier: cfg.ToNotifier(log),
				Log:      log,
			})
			return d.Run()
		},
	}
}

func translateCmd() *cobra.Command {
	var (
		local   bool
		capture bool
		asJSON  bool
		target  string
	)

	cmd := &cobra.Command{
		Use:   "translate <file|url>",
		Short: "Translate a voice message",
		Long: `Translate a voice message file or URL.

By default the running daemon does the work. With --local everything runs in
this process; --capture additionally stages the file as a chat message and
captures it through the player, the way the daemon does for a page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := args[0]
			if !strings.Contains(handle, "://") && !strings.HasPrefix(handle, "blob:") {
				abs, err := filepath.Abs(handle)
				if err != nil {
					return err
				}
				handle = abs
			}

			var (
				res *pipeline.Result
				err error
			)
			if local || capture || target != "" {
				res, err = translateLocal(cmd.Context(), handle, capture, target)
			} else {
				res, err = translateRemote(handle)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(res)
			}
			fmt.Println(renderResult(res))
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "run in-process instead of through the daemon")
	cmd.Flags().BoolVar(&capture, "capture", false, "stage the file and capture it through the player (implies --local)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&target, "target", "", "override the target language (implies --local)")

	return cmd
}

func translateRemote(handle string) (*pipeline.Result, error) {
	ep, err := endpoint()
	if err != nil {
		return nil, err
	}
	resp, err := ep.Send(bus.CmdTranslate, handle, translateTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to reach daemon (is `voicebridge serve` running?): %w", err)
	}
	_, payload, err := bus.ParseReply(resp)
	if err != nil {
		return nil, err
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode daemon reply: %w", err)
	}
	return &res, nil
}

func translateLocal(ctx context.Context, handle string, capture bool, target string) (*pipeline.Result, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	a, err := app.New(cfg, nil, log)
	if err != nil {
		return nil, err
	}
	defer a.Pipeline.Cleanup()

	if target != "" {
		if err := a.Pipeline.UpdateConfig(pipeline.Partial{TargetLang: &target}); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	if !capture {
		return a.Pipeline.TranslateVoiceMessage(ctx, nil, pipeline.Options{Handle: handle})
	}
	region, err := a.StageFile(handle)
	if err != nil {
		return nil, err
	}
	return a.Pipeline.TranslateVoiceMessage(ctx, region, pipeline.Options{})
}

func transcribeCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a voice message file without translating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			flag := &silent.Flag{}
			strategy, err := transcriber.New(cfg.ToTranscriberConfig(), flag, log)
			if err != nil {
				return err
			}
			if !strategy.IsSupported() {
				return fmt.Errorf("%s transcription is not available with the current config", strategy.Name())
			}

			if lang == "" {
				lang = cfg.Transcription.Language
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), translateTimeout)
			defer cancel()

			release := flag.Acquire()
			text, err := strategy.TranscribeFromBlob(ctx, download.NewPayload(filepath.Base(args[0]), data), lang)
			release()
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(text))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "language", "", "language hint (default: transcription.language)")
	return cmd
}

func statusCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := endpoint()
			if err != nil {
				return err
			}
			resp, err := ep.Send(bus.CmdStatus, "", 5*time.Second)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if raw {
				fmt.Print(resp)
				return nil
			}
			_, payload, err := bus.ParseReply(resp)
			if err != nil {
				return err
			}
			var st pipeline.Status
			if err := json.Unmarshal([]byte(payload), &st); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			fmt.Println(renderStatus(st))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw bus reply")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(bus.CmdVersion, "failed to get version")
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(bus.CmdQuit, "failed to stop daemon")
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the daemon's download cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every downloaded voice message",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(bus.CmdClearCache, "failed to clear cache")
		},
	})
	return cmd
}

func sendAndPrint(c byte, failure string) error {
	ep, err := endpoint()
	if err != nil {
		return err
	}
	resp, err := ep.Send(c, "", 5*time.Second)
	if err != nil {
		return fmt.Errorf("%s: %w", failure, err)
	}
	fmt.Print(resp)
	return nil
}

func depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external programs",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range deps.All() {
				fmt.Println(renderDep(s))
			}
		},
	}
}

func configureCmd() *cobra.Command {
	var onboarding bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration for voicebridge.
This will guide you through setting up:
- Transcription strategy, backend and model
- Translation engine and languages
- Provider API keys
- Notification preferences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(onboarding)
		},
	}

	cmd.Flags().BoolVar(&onboarding, "onboarding", false, "Walk through every section in order")

	return cmd
}

func runConfigure(onboarding bool) error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg, onboarding)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Println(tui.StyleError.Render("Configuration validation failed: ") + err.Error())
		return err
	}
	if err := config.Save(result.Config, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved successfully!"))
	fmt.Println()
	showNextSteps(path)
	return nil
}

func showNextSteps(path string) {
	serviceRunning := false
	if err := exec.Command("systemctl", "--user", "is-active", "--quiet", "voicebridge.service").Run(); err == nil {
		serviceRunning = true
	}

	fmt.Println("Next Steps:")
	if serviceRunning {
		fmt.Println("1. The daemon reloads languages and engine live; restart it for other changes: systemctl --user restart voicebridge.service")
	} else {
		fmt.Println("1. Start the daemon: voicebridge serve (or systemctl --user start voicebridge.service)")
	}
	fmt.Println("2. Try it: voicebridge translate path/to/voice.ogg")
	fmt.Println()
	fmt.Printf("Config file location: %s\n", path)
}
