package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/lumos/internal/cli"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files or directories...]",
		Short: "Redact and score typed conversations",
		Long: `Redact personal information from each conversation, then score its
overall sentiment and, for long conversations, the sentiment trend.

Directories contribute their .txt and .md files. Use "-" to read stdin.

Examples:
  lumos analyze chat.txt
  lumos analyze transcripts/ --output json
  cat chat.txt | lumos analyze -`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("output", "o", cli.FormatText, "output format (text, json, yaml)")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")

	_ = viper.BindPFlag("analyze.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("analyze.no_progress", cmd.Flags().Lookup("no-progress"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format := viper.GetString("analyze.output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	convs, err := cli.LoadConversations(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		return fmt.Errorf("no conversations found in %v", args)
	}

	var onDocument func(model.DocumentReport)
	if !viper.GetBool("analyze.no_progress") {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(convs), "Analyzing")
		onDocument = func(model.DocumentReport) { cli.Step(bar) }
	}

	p, err := buildPipeline(ctx, cfg, false, func(pc *pipeline.Config) {
		pc.OnDocument = onDocument
	})
	if err != nil {
		return err
	}

	slog.Info("Analyzing conversations", "count", len(convs))
	batch := p.ProcessBatch(ctx, convs)

	return cli.WriteBatch(cmd.OutOrStdout(), batch, format)
}
