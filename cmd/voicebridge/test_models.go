package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/deps"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
	"github.com/spf13/cobra"
)

const (
	defaultSampleURL  = "https://raw.githubusercontent.com/mozilla/DeepSpeech/master/data/smoke_test/LDC93S1.wav"
	defaultSampleName = "testaudio.wav"
	defaultSampleText = "She had your dark suit in greasy wash water all year."
)

type testModelsOptions struct {
	audioPath     string
	timeout       time.Duration
	outputPath    string
	downloadLocal bool
	language      string
	target        string
}

type modelTest struct {
	provider string
	model    provider.Model
}

type modelTestResult struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Type        string `json:"type"`
	Local       bool   `json:"local"`
	Status      string `json:"status"`
	DurationMS  int64  `json:"duration_ms"`
	Output      string `json:"output,omitempty"`
	OutputChars int    `json:"output_chars,omitempty"`
	Error       string `json:"error,omitempty"`
}

type testReport struct {
	StartedAt  time.Time         `json:"started_at"`
	AudioSrc   string            `json:"audio_src"`
	Results    []modelTestResult `json:"results"`
	PassCount  int               `json:"pass_count"`
	FailCount  int               `json:"fail_count"`
	SkipCount  int               `json:"skip_count"`
	TotalCount int               `json:"total_count"`
}

func testModelsCmd() *cobra.Command {
	var opts testModelsOptions

	cmd := &cobra.Command{
		Use:   "test-models",
		Short: "Run every transcription model and translation engine against a sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestModels(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.audioPath, "audio", "", "audio file to use (defaults to a downloaded sample)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "per-model timeout")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "write JSON report to file")
	cmd.Flags().BoolVar(&opts.downloadLocal, "download-local", false, "download local whisper models if missing")
	cmd.Flags().StringVar(&opts.language, "language", "en", "language hint for transcription")
	cmd.Flags().StringVar(&opts.target, "target", "de", "target language for translation")

	return cmd
}

func runTestModels(ctx context.Context, opts testModelsOptions) error {
	if opts.timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	startedAt := time.Now().UTC()

	cfg, err := readConfig()
	if err != nil {
		return err
	}

	audioSrc := opts.audioPath
	if audioSrc == "" {
		if audioSrc, err = ensureDefaultSample(ctx); err != nil {
			return err
		}
	}
	audio, err := os.ReadFile(audioSrc)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	payload := download.NewPayload(filepath.Base(audioSrc), audio)

	var results []modelTestResult
	text := defaultSampleText
	for _, test := range buildTests(provider.Transcription) {
		r := runTranscriptionTest(ctx, cfg, test, payload, opts)
		if r.Status == "pass" && text == defaultSampleText {
			text = r.Output
		}
		results = append(results, r)
	}
	for _, test := range buildTests(provider.Translation) {
		results = append(results, runTranslationTest(ctx, cfg, test, text, opts))
	}

	report := summarizeReport(startedAt, audioSrc, results)
	printReport(report)

	if opts.outputPath != "" {
		if err := writeReport(opts.outputPath, report); err != nil {
			return err
		}
	}

	if report.FailCount > 0 {
		return fmt.Errorf("%d failed, %d skipped", report.FailCount, report.SkipCount)
	}
	return nil
}

func buildTests(t provider.ModelType) []modelTest {
	var tests []modelTest
	for _, name := range provider.ListProvidersFor(t) {
		for _, m := range provider.ModelsOfType(provider.GetProvider(name), t) {
			tests = append(tests, modelTest{provider: name, model: m})
		}
	}
	return tests
}

func runTranscriptionTest(ctx context.Context, cfg *config.Config, test modelTest, payload *download.Payload, opts testModelsOptions) modelTestResult {
	result := modelTestResult{
		Provider: test.provider,
		Model:    test.model.ID,
		Type:     "transcription",
		Local:    test.model.Local,
		Status:   "fail",
	}

	tc := cfg.ToTranscriberConfig()
	tc.Model = test.model.ID
	tc.MaxRetries = 0
	tc.Timeout = opts.timeout

	switch test.provider {
	case provider.ProviderWhisperCpp:
		if !deps.CheckWhisperCli().Installed {
			return skip(result, "whisper-cli not found")
		}
		if !whisper.IsInstalled(test.model.ID) {
			if !opts.downloadLocal {
				return skip(result, "local model not installed")
			}
			if err := whisper.Download(ctx, test.model.ID, nil); err != nil {
				result.Error = err.Error()
				return result
			}
		}
		tc.Strategy = transcriber.StrategyLocal
		tc.ModelPath = whisper.GetModelPath(test.model.ID)
	case provider.ProviderInference:
		if cfg.Transcription.Backend != transcriber.BackendInference || cfg.Transcription.Endpoint == "" {
			return skip(result, "no inference endpoint configured")
		}
		tc.Strategy = transcriber.StrategyHosted
	default:
		tc.Strategy = transcriber.StrategyHosted
		tc.Backend = transcriber.BackendOpenAI
		tc.Endpoint = ""
	}

	if tc.Strategy == transcriber.StrategyHosted {
		tc.APIKey = cfg.APIKey(test.provider)
		if tc.APIKey == "" {
			return skip(result, "missing api key")
		}
	}

	flag := &silent.Flag{}
	strategy, err := transcriber.New(tc, flag, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	testCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	release := flag.Acquire()
	start := time.Now()
	text, err := strategy.TranscribeFromBlob(testCtx, payload, opts.language)
	result.DurationMS = time.Since(start).Milliseconds()
	release()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	return pass(result, text)
}

func runTranslationTest(ctx context.Context, cfg *config.Config, test modelTest, text string, opts testModelsOptions) modelTestResult {
	result := modelTestResult{
		Provider: test.provider,
		Model:    test.model.ID,
		Type:     "translation",
		Status:   "fail",
	}

	engine := test.model.ID
	if test.provider == provider.ProviderOpenAI {
		engine = translate.EngineOpenAI
	}
	tc := cfg.ToTranslateConfigFor(engine)
	tc.FallbackEndpoint = ""
	tc.Timeout = opts.timeout
	if engine == translate.EngineOpenAI {
		tc.Model = test.model.ID
		if tc.APIKey == "" {
			return skip(result, "missing api key")
		}
	} else if tc.Endpoint == "" {
		return skip(result, "no translation service endpoint configured")
	}

	tr, err := translate.FromConfig(tc, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	testCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	start := time.Now()
	res, err := tr.Translate(testCtx, translate.Request{Text: text, SourceLang: opts.language, TargetLang: opts.target})
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	return pass(result, res.Text)
}

func skip(r modelTestResult, reason string) modelTestResult {
	r.Status = "skip"
	r.Error = reason
	return r
}

func pass(r modelTestResult, output string) modelTestResult {
	r.Status = "pass"
	r.Output = strings.TrimSpace(output)
	r.OutputChars = len(r.Output)
	return r
}

func ensureDefaultSample(ctx context.Context) (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(cacheDir, "voicebridge", defaultSampleName)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	fmt.Printf("test-models: downloading sample audio...\n")
	data, err := download.NewSchemeFetcher(nil, 2*time.Minute).Fetch(ctx, defaultSampleURL)
	if err != nil {
		return "", fmt.Errorf("download sample: %w (use --audio to skip download)", err)
	}
	tmpPath := path + ".downloading"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return path, nil
}

func summarizeReport(startedAt time.Time, audioSrc string, results []modelTestResult) testReport {
	report := testReport{
		StartedAt: startedAt,
		AudioSrc:  audioSrc,
		Results:   results,
	}
	for _, r := range results {
		report.TotalCount++
		switch r.Status {
		case "pass":
			report.PassCount++
		case "fail":
			report.FailCount++
		case "skip":
			report.SkipCount++
		}
	}
	return report
}

func printReport(report testReport) {
	fmt.Printf("test-models: total=%d pass=%d fail=%d skip=%d\n", report.TotalCount, report.PassCount, report.FailCount, report.SkipCount)
	fmt.Printf("audio: %s\n", report.AudioSrc)
	for _, r := range report.Results {
		line := fmt.Sprintf("%s %s/%s %s", r.Status, r.Provider, r.Model, r.Type)
		if r.DurationMS > 0 {
			line += fmt.Sprintf(" %dms", r.DurationMS)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" error=%s", truncateString(r.Error, 160))
		}
		if r.Output != "" {
			line += fmt.Sprintf(" output=%q", truncateString(r.Output, 120))
		}
		fmt.Println(line)
	}
}

func writeReport(path string, report testReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
