package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/lumos/internal/cli"
	"github.com/Veraticus/lumos/internal/config"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/pipeline"
	"github.com/Veraticus/lumos/internal/speech"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func audioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio [files...]",
		Short: "Transcribe, redact and score recorded calls",
		Long: `Transcribe each recording, then run it through the same redaction and
sentiment analysis as typed conversations.

With no arguments every .wav, .mp3 and .ogg file in the upload folder
(dashboard.upload_folder, default ./uploads) is processed.`,
		RunE: runAudio,
	}

	cmd.Flags().StringP("output", "o", cli.FormatText, "output format (text, json, yaml)")
	cmd.Flags().StringP("dir", "d", "", "directory to scan instead of the upload folder")

	_ = viper.BindPFlag("audio.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("audio.dir", cmd.Flags().Lookup("dir"))

	return cmd
}

func runAudio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		dir := viper.GetString("audio.dir")
		if dir == "" {
			dir = cfg.UploadFolder
		}
		dir, err = config.ResolveDir(dir)
		if err != nil {
			return err
		}
		paths, err = cli.FindFiles(dir, speech.IsAudioFile)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf("No audio files found in %s", dir)))
			return nil
		}
	}

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(paths), "Transcribing")
	p, err := buildPipeline(ctx, cfg, true, func(pc *pipeline.Config) {
		pc.OnDocument = func(model.DocumentReport) { cli.Step(bar) }
	})
	if err != nil {
		return err
	}

	slog.Info("Processing recordings", "count", len(paths))
	batch := p.ProcessAudio(ctx, paths)

	return cli.WriteBatch(cmd.OutOrStdout(), batch, viper.GetString("audio.output"))
}
