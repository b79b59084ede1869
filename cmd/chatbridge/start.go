package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/core"
	"github.com/keepmind9/chatbridge/internal/logger"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start chatbridge with the built-in echo handler",
		Long: `Start chatbridge, connect every enabled bot and run the built-in echo
handler: each inbound message is extracted to the universal model and sent
back as a reply. Useful for verifying platform wiring and credentials.`,
		Run: func(cmd *cobra.Command, args []string) {
			config, err := core.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			fmt.Printf("Starting chatbridge with config: %s\n", configFile)
			fmt.Printf("Whitelist enabled: %v\n", config.Security.WhitelistEnabled)

			logConfig := logger.Config{
				Level:        config.Logging.Level,
				File:         config.Logging.File,
				MaxSize:      config.Logging.MaxSize,
				MaxBackups:   config.Logging.MaxBackups,
				MaxAge:       config.Logging.MaxAge,
				Compress:     config.Logging.Compress,
				EnableStdout: config.Logging.EnableStdout,
			}
			if err := logger.InitLogger(logConfig); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
			}).Info("logger-initialized")

			engine, err := core.NewEngine(config)
			if err != nil {
				log.Fatalf("Failed to create engine: %v", err)
			}

			if err := engine.Start(echoHandler); err != nil {
				log.Fatalf("Failed to start engine: %v", err)
			}

			fmt.Println("chatbridge started, press Ctrl+C to stop")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigChan

			log.Printf("Received signal: %v, shutting down gracefully...", sig)
			engine.Stop()
			log.Println("chatbridge stopped")
		},
	}
)

// echoHandler replies with the inbound message's plain text.
func echoHandler(ctx context.Context, s *bridge.Session, ev bridge.Event) {
	text := "(no text)"
	if extracted, err := s.Message(); err == nil && extracted.PlainText() != "" {
		text = extracted.PlainText()
	}

	if _, err := s.SendText(ctx, text); err != nil {
		logger.WithFields(logrus.Fields{
			"platform": ev.Platform(),
			"error":    err,
		}).Warn("echo-send-failed")
	}
}

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
