package main

import (
	"fmt"

	"github.com/Veraticus/lumos/internal/cli"
	"github.com/spf13/cobra"
)

func anonymizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anonymize [files or directories...]",
		Short: "Redact personal information without scoring sentiment",
		Long: `Print each conversation with personal information replaced by
placeholders such as [PERSON] or [EMAIL]. No sentiment service is contacted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnonymize,
	}

	cmd.Flags().Bool("summary", false, "print redaction counts after each document")

	return cmd
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	summary, _ := cmd.Flags().GetBool("summary")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	convs, err := cli.LoadConversations(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	anonymizer, err := newAnonymizer(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, conv := range convs {
		result, err := anonymizer.AnonymizeText(ctx, conv.Text)
		if err != nil {
			return fmt.Errorf("failed to anonymize %s: %w", conv.Source, err)
		}
		fmt.Fprintln(out, result.Text)
		if summary {
			if line := cli.RenderRedactions(result.Counts); line != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
		}
	}
	return nil
}
