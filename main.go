package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nicolagi/tgdrive/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "tgdrive",
	Short:         "Telegram bot that files uploads into a drive index",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to configuration `file`")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(folderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tgdrive: %v\n", err)
		os.Exit(1)
	}
}
