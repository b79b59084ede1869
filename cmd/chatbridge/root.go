package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatbridge",
	Short: "chatbridge is a platform-abstraction layer for chat bots",
	Long: `chatbridge connects chat platforms (OneBot, Telegram, QQ, Discord and a
local console) behind one message model: bot logic sends, replies, revokes
and inspects messages the same way on every platform, and each platform
backend degrades unsupported content instead of failing.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}
