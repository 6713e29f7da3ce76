package main

import (
	"os"

	"github.com/spf13/cobra"

	"shopmate/internal/logger"
)

func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:   "shopmate",
		Short: "Shopmate is a conversational shopping assistant",
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(indexCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
