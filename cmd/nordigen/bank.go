package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	nordigen "github.com/nordigen-tools/nordigen-go"
	"github.com/nordigen-tools/nordigen-go/internal/instcache"
)

// institutionCacheTTL is how long a cached institution listing stays fresh.
const institutionCacheTTL = 24 * time.Hour

var bankCommand = &cli.Command{
	Name:  "bank",
	Usage: "bank related commands",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "state",
			Aliases:  []string{"s"},
			Usage:    "token state file",
			Required: true,
		},
	},
	Subcommands: []*cli.Command{
		runBankList,
		runBankAuthorize,
		accountCommand,
	},
}

var runBankList = &cli.Command{
	Name:  "list",
	Usage: "list supported banks",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "country",
			Aliases: []string{"c"},
			Usage:   "restrict the listing to an ISO country code",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "bypass the local institution cache",
		},
	},
	Action: func(cmd *cli.Context) error {
		state, err := requireValidState(cmd.String("state"))
		if err != nil {
			return err
		}

		country := cmd.String("country")

		var cache *instcache.Cache
		if !cmd.Bool("no-cache") {
			cache, err = instcache.Open(cachePath())
			if err != nil {
				// A broken cache should not break the listing.
				slog.Warn("institution cache unavailable", "err", err)
			} else {
				defer cache.Close()
			}
		}

		if cache != nil {
			institutions, ok, err := cache.Get(country, institutionCacheTTL)
			if err != nil {
				slog.Warn("institution cache lookup failed", "err", err)
			} else if ok {
				slog.Debug("institution listing served from cache", "country", country)
				printInstitutions(institutions)
				return nil
			}
		}

		institutions, err := newClient().ListInstitutions(cmd.Context, state.Token, country)
		if err != nil {
			return err
		}

		if cache != nil {
			if err := cache.Put(country, institutions); err != nil {
				slog.Warn("could not update institution cache", "err", err)
			}
		}

		printInstitutions(institutions)
		return nil
	},
}

var runBankAuthorize = &cli.Command{
	Name:      "authorize",
	Usage:     "authorize against a bank",
	ArgsUsage: "BANK_ID",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "auth",
			Aliases:  []string{"a"},
			Usage:    "bank authorization file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "callback listen address",
			Value: nordigen.DefaultCallbackAddr,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "how long to wait for the bank's redirect",
			Value: 5 * time.Minute,
		},
	},
	Action: func(cmd *cli.Context) error {
		if cmd.NArg() != 1 {
			return fmt.Errorf("expected exactly one BANK_ID argument")
		}
		bankID := cmd.Args().First()

		state, err := requireValidState(cmd.String("state"))
		if err != nil {
			return err
		}

		flow := newFlow()
		_, err = flow.AuthorizeBank(cmd.Context, state.Token, bankID, cmd.String("auth"),
			nordigen.AuthorizeBankOptions{
				ListenAddr: cmd.String("listen"),
				Timeout:    cmd.Duration("timeout"),
				PresentLink: func(link string) {
					fmt.Println("Please follow the link below to authenticate with the selected bank.")
					fmt.Printf("  %s\n", link)
				},
			})
		if err != nil {
			return err
		}

		fmt.Println("Successfully authorized with bank!")
		return nil
	},
}

func cachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "nordigen-institutions.db"
	}
	return filepath.Join(dir, "nordigen-institutions.db")
}
