package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

var runAuthorize = &cli.Command{
	Name:  "authorize",
	Usage: "authorize the application against the provider",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file with secret_id/secret_key",
		},
		&cli.StringFlag{
			Name:     "state",
			Aliases:  []string{"s"},
			Usage:    "token state file",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		cfg, err := loadConfig(cmd.String("config"))
		if err != nil {
			return err
		}

		flow := newFlow()
		state, status, err := flow.EnsureToken(cmd.Context, cfg.SecretID, cfg.SecretKey, cmd.String("state"))
		if err != nil {
			return err
		}

		switch status {
		case nordigen.TokenValid:
			fmt.Println("Authorization still valid")
		case nordigen.TokenNeedsRefresh:
			fmt.Println("Access token expired. Please refresh!")
		case nordigen.TokenIssued:
			fmt.Printf("Obtained authorization token; expires on %s\n", state.TokenExpiresOn())
		}

		return nil
	},
}

var runRefresh = &cli.Command{
	Name:  "refresh",
	Usage: "refresh the application's access token",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "state",
			Aliases:  []string{"s"},
			Usage:    "token state file",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		flow := newFlow()

		before, err := nordigen.LoadState(cmd.String("state"))
		if err != nil {
			return err
		}

		state, err := flow.Refresh(cmd.Context, cmd.String("state"))
		if err != nil {
			return err
		}

		if state.Token == before.Token {
			fmt.Println("Token is still valid and does not need to be refreshed.")
			return nil
		}

		fmt.Printf("Successfully refreshed; new token expires on %s\n", state.TokenExpiresOn())
		return nil
	},
}

var runStatus = &cli.Command{
	Name:  "status",
	Usage: "show the current authorization status",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "state",
			Aliases:  []string{"s"},
			Usage:    "token state file",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		state, err := nordigen.LoadState(cmd.String("state"))
		if err != nil {
			return err
		}

		printStatus(state)
		return nil
	},
}
