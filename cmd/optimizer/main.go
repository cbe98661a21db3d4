package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-optimizer/internal/logger"
	"github.com/rxtech-lab/argo-optimizer/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-optimizer",
		Usage:   "Backtest the momentum breakout strategy and search its parameters",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			backtestCommand(),
			searchCommand(),
			schemaCommand(),
			generateCommand(),
		},
	}
}

// inputFlags are shared by the commands that read bar files.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "fast",
			Usage:    "Path to the fast (5m) bar file, parquet or csv",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "slow",
			Usage:    "Path to the slow (15m) bar file, parquet or csv",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to the backtest engine yaml config",
		},
		&cli.BoolFlag{
			Name:  "compute-indicators",
			Usage: "Compute the ATR, ADX and EMA columns instead of reading them from the files",
		},
	}
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(cmd.String("log-level"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
