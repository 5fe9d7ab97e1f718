package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

var accountCommand = &cli.Command{
	Name:  "account",
	Usage: "account related commands",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "auth",
			Aliases:  []string{"a"},
			Usage:    "bank authorization file",
			Required: true,
		},
	},
	Subcommands: []*cli.Command{
		runAccountList,
		runAccountTransactions,
		runAccountBalance,
	},
}

var runAccountList = &cli.Command{
	Name:  "list",
	Usage: "list accounts of the authorized bank",
	Action: func(cmd *cli.Context) error {
		state, consent, err := loadAccountContext(cmd)
		if err != nil {
			return err
		}

		client := newClient()
		requisition, err := client.GetRequisition(cmd.Context, state.Token, consent.RequisitionID)
		if err != nil {
			return err
		}

		for _, accountID := range requisition.Accounts {
			meta, err := client.AccountMetadata(cmd.Context, state.Token, accountID)
			if err != nil {
				return fmt.Errorf("could not obtain metadata for account %s: %w", accountID, err)
			}
			printAccountMetadata(meta)
		}

		return nil
	},
}

var runAccountTransactions = &cli.Command{
	Name:  "transactions",
	Usage: "list an account's booked transactions",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "iban",
			Aliases:  []string{"i"},
			Usage:    "account IBAN",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		state, consent, err := loadAccountContext(cmd)
		if err != nil {
			return err
		}

		client := newClient()
		meta, err := findAccountByIBAN(cmd.Context, client, state.Token, consent, cmd.String("iban"))
		if err != nil {
			return err
		}

		transactions, err := client.AccountTransactions(cmd.Context, state.Token, meta.ID)
		if err != nil {
			return err
		}

		printTransactions(transactions.Booked)
		return nil
	},
}

var runAccountBalance = &cli.Command{
	Name:  "balance",
	Usage: "show an account's balances",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "iban",
			Aliases:  []string{"i"},
			Usage:    "account IBAN",
			Required: true,
		},
	},
	Action: func(cmd *cli.Context) error {
		state, consent, err := loadAccountContext(cmd)
		if err != nil {
			return err
		}

		client := newClient()
		meta, err := findAccountByIBAN(cmd.Context, client, state.Token, consent, cmd.String("iban"))
		if err != nil {
			return err
		}

		balances, err := client.AccountBalances(cmd.Context, state.Token, meta.ID)
		if err != nil {
			return err
		}

		printBalances(balances)
		return nil
	},
}

func loadAccountContext(cmd *cli.Context) (*nordigen.State, *nordigen.BankConsent, error) {
	state, err := requireValidState(cmd.String("state"))
	if err != nil {
		return nil, nil, err
	}

	consent, err := nordigen.LoadConsent(cmd.String("auth"))
	if err != nil {
		return nil, nil, err
	}

	return state, consent, nil
}

func findAccountByIBAN(ctx context.Context, client *nordigen.Client, access string, consent *nordigen.BankConsent, iban string) (*nordigen.AccountMetadata, error) {
	requisition, err := client.GetRequisition(ctx, access, consent.RequisitionID)
	if err != nil {
		return nil, err
	}

	for _, accountID := range requisition.Accounts {
		meta, err := client.AccountMetadata(ctx, access, accountID)
		if err != nil {
			return nil, fmt.Errorf("could not obtain metadata for account %s: %w", accountID, err)
		}
		if meta.IBAN == iban {
			return meta, nil
		}
	}

	return nil, fmt.Errorf("could not find account with IBAN %s", iban)
}
