package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Napageneral/chatclean/internal/config"
	"github.com/Napageneral/chatclean/internal/extract"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	var (
		source      string
		target      string
		chats       string
		debounceSec int
	)

	rootCmd := &cobra.Command{
		Use:   "chatclean",
		Short: "Export clean iMessage conversations",
		Long: `Chatclean copies selected conversations out of the Apple Messages
archive (chat.db) into a clean, portable SQLite database: decoded
attributedBody text, normalized artifacts, reaction/quote flags,
Unix timestamps, and readable views.`,
	}

	addExportFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&source, "source", cfg.Source, "Path to the source chat.db")
		cmd.Flags().StringVar(&target, "target", cfg.Target, "Path to the clean database to create")
		cmd.Flags().StringVar(&chats, "chats", cfg.Chats, "Comma-separated chat ROWIDs, or \"all\"")
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export conversations into a clean database",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := extract.Run(cmd.Context(), extract.Options{
				SourcePath: source,
				TargetPath: target,
				Selector:   chats,
			}, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Created %s: %d chats, %d messages (%d reactions, %d quotes), %d attachments in %s\n",
				target, result.Chats, result.Messages, result.Reactions, result.Quotes,
				result.Attachments, result.Duration.Round(time.Millisecond))
			fmt.Println()
			fmt.Println("Query examples:")
			fmt.Printf("  sqlite3 %s \"SELECT * FROM messages_readable LIMIT 10;\"\n", target)
			fmt.Printf("  sqlite3 %s \"SELECT * FROM messages_clean WHERE message LIKE '%%keyword%%';\"\n", target)
		},
	}
	addExportFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export whenever the source database changes",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println("Press Ctrl+C to stop")
			err := extract.Watch(ctx, extract.Options{
				SourcePath: source,
				TargetPath: target,
				Selector:   chats,
			}, time.Duration(debounceSec)*time.Second, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	addExportFlags(watchCmd)
	watchCmd.Flags().IntVar(&debounceSec, "debounce", cfg.Watch.DebounceSeconds,
		"Seconds to wait after a change before re-exporting")
	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.Default().Save(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			configDir, err := config.GetConfigDir()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s/config.yaml\n", configDir)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chatclean %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
