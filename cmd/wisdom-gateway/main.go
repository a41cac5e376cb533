package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Wisdom Gateway
// @version 0.1.0
// @description View-model gateway in front of the Book of Wisdom backend
// @BasePath /
// @schemes http

var rootCmd = &cobra.Command{
	Use:   "wisdom-gateway",
	Short: "Book of Wisdom view gateway",
	Long:  "wisdom-gateway resolves identities, gates admin pages and composes the dashboard, moderation and profile views on top of the Book of Wisdom REST backend.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
