package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/spf13/cobra"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage transcription and translation models",
	}

	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(modelDownloadCmd())
	cmd.AddCommand(modelRemoveCmd())

	return cmd
}

func modelListCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available transcription and translation models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: transcription, translation")

	return cmd
}

func parseModelType(s string) (*provider.ModelType, error) {
	if s == "" {
		return nil, nil
	}
	var t provider.ModelType
	switch strings.ToLower(s) {
	case "transcription":
		t = provider.Transcription
	case "translation":
		t = provider.Translation
	default:
		return nil, fmt.Errorf("invalid type: %s (use 'transcription' or 'translation')", s)
	}
	return &t, nil
}

func runModelList(providerFilter, typeFilter string) error {
	filterType, err := parseModelType(typeFilter)
	if err != nil {
		return err
	}

	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		models := p.Models()
		if filterType != nil {
			models = provider.ModelsOfType(p, *filterType)
		}
		if len(models) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", providerName)
		for _, m := range models {
			fmt.Println(formatModelLine(m, whisper.IsInstalled))
		}
	}

	fmt.Println()
	return nil
}

func formatModelLine(m provider.Model, installed func(string) bool) string {
	prefix := "  "
	if m.Local {
		if installed(m.ID) {
			prefix = "  [x]"
		} else {
			prefix = "  [ ]"
		}
	}

	var parts []string
	if m.Type == provider.Translation {
		parts = append(parts, "translation")
	}
	if m.LocalInfo != nil && m.LocalInfo.Size != "" {
		parts = append(parts, m.LocalInfo.Size)
	}

	line := fmt.Sprintf("%s %s", prefix, m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	if len(parts) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}
	return line
}

func modelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model-name>",
		Short: "Download a local whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelDownload(cmd.Context(), args[0])
		},
	}
}

func runModelDownload(ctx context.Context, modelName string) error {
	model, _, err := provider.FindModelByID(modelName)
	if err != nil {
		return err
	}
	if !model.NeedsDownload() {
		fmt.Printf("model '%s' is a cloud model and does not require download\n", modelName)
		return nil
	}
	if whisper.IsInstalled(modelName) {
		fmt.Printf("model '%s' is already installed at %s\n", modelName, whisper.GetModelPath(modelName))
		return nil
	}

	fmt.Printf("downloading %s", modelName)
	if model.LocalInfo != nil && model.LocalInfo.Size != "" {
		fmt.Printf(" (%s)", model.LocalInfo.Size)
	}
	fmt.Println("...")

	var lastPercent int
	err = whisper.Download(ctx, modelName, func(downloaded, total int64) {
		if total > 0 {
			percent := int(downloaded * 100 / total)
			if percent >= lastPercent+10 {
				fmt.Printf("%d%% ", percent)
				lastPercent = percent
			}
		}
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Printf("\ndownload complete: %s\n", whisper.GetModelPath(modelName))
	return nil
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model-name>",
		Short: "Remove a downloaded local model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelRemove(args[0])
		},
	}
}

func runModelRemove(modelName string) error {
	model, _, err := provider.FindModelByID(modelName)
	if err != nil {
		return err
	}
	if !model.NeedsDownload() {
		fmt.Printf("model '%s' is a cloud model, nothing to remove\n", modelName)
		return nil
	}
	if !whisper.IsInstalled(modelName) {
		return fmt.Errorf("model '%s' is not installed", modelName)
	}
	if err := whisper.Remove(modelName); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}

	fmt.Printf("model '%s' removed successfully\n", modelName)
	return nil
}
