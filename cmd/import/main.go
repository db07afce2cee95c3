// Package main provides the WhatsApp chat import CLI. Each chat message
// becomes a token record backdated to its send time; duplicates and
// empty messages are skipped rather than aborting the run.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ycxd3695-spec/token-management-system/internal/codec"
	"github.com/ycxd3695-spec/token-management-system/internal/config"
	"github.com/ycxd3695-spec/token-management-system/internal/githubfs"
	"github.com/ycxd3695-spec/token-management-system/internal/models"
	"github.com/ycxd3695-spec/token-management-system/internal/store"
	"github.com/ycxd3695-spec/token-management-system/internal/whatsapp"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()

	importTag string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "import <chat-export.txt>",
	Short: "Import tokens from a WhatsApp chat export",
	Long: `Import reads an exported WhatsApp chat and inserts one token per
message into the configured GitHub-backed store. The sender becomes the
token name, the message text the value, and the send time the createdAt,
so imported records keep their real age.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.Flags().StringVar(&importTag, "tag", "", "tag applied to every imported token")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing anything")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	messages, err := whatsapp.ParseExport(f)
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %d messages from %s\n", len(messages), args[0])

	if dryRun {
		for _, m := range messages {
			fmt.Printf("  %s  %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.Sender, m.Text)
		}
		fmt.Println(yellow("Dry run, nothing written"))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Keep the CLI output readable; only store warnings get through.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	remote := githubfs.New(cfg.APIBaseURL, cfg.GitHubToken, cfg.Owner, cfg.Repo, cfg.FilePath)
	svc := store.New(remote, codec.FormatForPath(cfg.FilePath), logger)

	var imported, duplicates, invalid int
	for _, m := range messages {
		in := models.TokenInput{
			Name:      m.Sender,
			Value:     m.Text,
			Tag:       importTag,
			CreatedAt: models.Timestamp(m.Timestamp),
		}
		_, err := svc.Insert(cmd.Context(), in)
		switch {
		case err == nil:
			imported++
			fmt.Printf("%s %s (%s)\n", green("✓"), m.Sender, m.Timestamp.Format("2006-01-02"))
		case errors.Is(err, models.ErrDuplicate):
			duplicates++
			fmt.Printf("%s skipped duplicate from %s\n", yellow("-"), m.Sender)
		case errors.Is(err, models.ErrValidation):
			invalid++
		default:
			// A remote failure makes further inserts pointless.
			fmt.Printf("%s write failed for message from %s\n", red("✗"), m.Sender)
			return fmt.Errorf("import aborted: %w", err)
		}
	}

	fmt.Printf("\n%s imported %d, skipped %d duplicates, %d invalid\n",
		green("Done:"), imported, duplicates, invalid)
	return nil
}
