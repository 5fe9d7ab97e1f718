package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

func main() {
	app := &cli.App{
		Name:    "nordigen",
		Usage:   "a simple Nordigen open-banking client",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			runAuthorize,
			runRefresh,
			runStatus,
			bankCommand,
		},
	}

	app.RunAndExitOnError()
}

func setupLogging(cmd *cli.Context) error {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	return nil
}

func newFlow() *nordigen.Flow {
	client := nordigen.NewClient(nordigen.ClientArgs{Logger: slog.Default()})
	return nordigen.NewFlow(client, slog.Default())
}

func newClient() *nordigen.Client {
	return nordigen.NewClient(nordigen.ClientArgs{Logger: slog.Default()})
}

// requireValidState loads the token state and insists the access token is
// usable right now.
func requireValidState(statePath string) (*nordigen.State, error) {
	state, err := nordigen.LoadState(statePath)
	if err != nil {
		if errors.Is(err, nordigen.ErrStateNotFound) {
			return nil, fmt.Errorf("no authorization found, run `nordigen authorize` first")
		}
		return nil, err
	}

	if state.IsTokenExpired(time.Now()) {
		return nil, fmt.Errorf("access token has expired, run `nordigen refresh`")
	}

	return state, nil
}
