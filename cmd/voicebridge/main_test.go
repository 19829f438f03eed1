package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/provider"
)

func TestParseModelType(t *testing.T) {
	if mt, err := parseModelType(""); err != nil || mt != nil {
		t.Errorf("parseModelType(\"\") = %v, %v", mt, err)
	}
	if mt, err := parseModelType("Translation"); err != nil || *mt != provider.Translation {
		t.Errorf("parseModelType(Translation) = %v, %v", mt, err)
	}
	if _, err := parseModelType("llm"); err == nil {
		t.Error("parseModelType(llm) accepted")
	}
}

func TestFormatModelLine(t *testing.T) {
	local := provider.Model{
		ID:          "base",
		Description: "Balanced",
		Type:        provider.Transcription,
		Local:       true,
		LocalInfo:   &provider.LocalModelInfo{Size: "142 MB"},
	}
	installed := func(id string) bool { return id == "base" }

	got := formatModelLine(local, installed)
	if got != "  [x] base - Balanced [142 MB]" {
		t.Errorf("local line = %q", got)
	}

	cloud := provider.Model{ID: "gpt-4o-mini", Type: provider.Translation}
	if got := formatModelLine(cloud, installed); got != "   gpt-4o-mini [translation]" {
		t.Errorf("cloud line = %q", got)
	}
}

func TestBuildTests(t *testing.T) {
	seen := map[string]bool{}
	for _, tt := range buildTests(provider.Translation) {
		if tt.model.Type != provider.Translation {
			t.Errorf("%s/%s is not a translation model", tt.provider, tt.model.ID)
		}
		seen[tt.provider] = true
	}
	if !seen[provider.ProviderOpenAI] || !seen[provider.ProviderTranslate] {
		t.Errorf("translation providers = %v", seen)
	}
}

func TestSummarizeAndWriteReport(t *testing.T) {
	results := []modelTestResult{
		{Provider: "openai", Model: "whisper-1", Status: "pass"},
		{Provider: "inference", Model: "whisper-large-v3", Status: "skip"},
		{Provider: "translate", Model: "deepl", Status: "fail"},
	}
	report := summarizeReport(time.Now(), "sample.wav", results)
	if report.TotalCount != 3 || report.PassCount != 1 || report.SkipCount != 1 || report.FailCount != 1 {
		t.Errorf("report counts = %+v", report)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := writeReport(path, report); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"total_count": 3`) {
		t.Errorf("report file = %s", data)
	}
}

func TestRenderStatus(t *testing.T) {
	out := renderStatus(pipeline.Status{
		Initialized: true,
		Available:   true,
		Strategy:    "hosted",
		Engine:      "deepl",
		SourceLang:  "auto",
		TargetLang:  "en",
		CacheSize:   2,
	})
	for _, want := range []string{"ready", "hosted", "deepl", "auto -> en"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 3); got != "abc..." {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("ab", 3); got != "ab" {
		t.Errorf("truncateString = %q", got)
	}
}
