package main

import (
	"context"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/tenbase/tenbase/pkg/config"
	"github.com/tenbase/tenbase/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "tenbase-workflow",
		Usage:                 "Run the record workflow automation service",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("TENBASE_WORKFLOW_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the workflow API server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := config.LoadOrDefault(command.String("config"))
			if err != nil {
				return err
			}

			applyFlagOverrides(&cfg, command)

			log.Setup(cfg.LogLevel)

			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(ctx, cfg)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func applyFlagOverrides(cfg *config.Config, command *cli.Command) {
	if port := command.Int("port"); port != 0 {
		cfg.Port = port
	}

	if url := command.String("database-url"); url != "" {
		cfg.DatabaseURL = url
	}

	if provider := command.String("event-bus"); provider != "" {
		cfg.EventBus.Provider = provider
	}

	if brokers := command.String("kafka-brokers"); brokers != "" {
		cfg.EventBus.Brokers = strings.Split(brokers, ",")
	}

	if command.IsSet("log-level") {
		cfg.LogLevel = command.String("log-level")
	}
}
