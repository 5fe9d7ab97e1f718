package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/table"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func printInstitutions(institutions []nordigen.Institution) {
	t := newTable()
	t.AppendHeader(table.Row{"Country", "ID", "Name", "Tx Days"})
	for _, inst := range institutions {
		t.AppendRow(table.Row{
			strings.Join(inst.Countries, ", "),
			inst.ID,
			inst.Name,
			inst.TransactionTotalDays,
		})
	}
	t.Render()
}

func printTransactions(transactions []nordigen.Transaction) {
	t := newTable()
	t.AppendHeader(table.Row{"Date", "Amount", "Currency", "Info"})
	for _, tx := range transactions {
		info := "<none>"
		if tx.RemittanceInformationUnstructured != nil {
			info = *tx.RemittanceInformationUnstructured
		}
		t.AppendRow(table.Row{
			tx.ValueDate,
			tx.TransactionAmount.Amount,
			tx.TransactionAmount.Currency,
			info,
		})
	}
	t.Render()
}

func printBalances(balances []nordigen.Balance) {
	t := newTable()
	t.AppendHeader(table.Row{"Type", "Amount", "Currency", "Reference Date"})
	for _, balance := range balances {
		t.AppendRow(table.Row{
			balance.BalanceType,
			balance.BalanceAmount.Amount,
			balance.BalanceAmount.Currency,
			balance.ReferenceDate,
		})
	}
	t.Render()
}

func printAccountMetadata(meta *nordigen.AccountMetadata) {
	fmt.Println()
	fmt.Printf("   account id: %s\n", meta.ID)
	fmt.Printf("         iban: %s\n", meta.IBAN)
	fmt.Printf("     currency: %s\n", meta.Currency)
	fmt.Printf("      bank id: %s\n", meta.InstitutionID)
	if meta.Name != nil {
		fmt.Printf(" account name: %s\n", *meta.Name)
	}
	if meta.OwnerName != nil {
		fmt.Printf("        owner: %s\n", *meta.OwnerName)
	}
	if meta.Product != nil {
		fmt.Printf("      product: %s\n", *meta.Product)
	}
	if meta.AccountType != nil {
		fmt.Printf(" account type: %s\n", *meta.AccountType)
	}
	fmt.Printf("      created: %s\n", formatMaybeTime(meta.Created))
	fmt.Printf("last accessed: %s\n", formatMaybeTime(meta.LastAccessed))
	fmt.Println()
}

func printStatus(state *nordigen.State) {
	now := time.Now()

	t := newTable()
	t.AppendHeader(table.Row{"Token", "Expires", "Expired"})
	t.AppendRow(table.Row{"access", state.TokenExpiresOn(), state.IsTokenExpired(now)})
	t.AppendRow(table.Row{"refresh", state.RefreshExpiresOn(), state.IsRefreshExpired(now)})
	t.Render()

	// Provider access tokens are JWTs; showing their claims helps spot
	// clock drift between the local expiry bookkeeping and the provider's.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(state.Token, claims); err != nil {
		return
	}

	ct := newTable()
	ct.AppendHeader(table.Row{"Claim", "Value"})
	for _, key := range []string{"token_type", "jti", "exp", "iat"} {
		if value, ok := claims[key]; ok {
			ct.AppendRow(table.Row{key, fmt.Sprintf("%v", value)})
		}
	}
	ct.Render()
}

func formatMaybeTime(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.String()
}
