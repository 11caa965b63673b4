package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"bankdash/internal/apiclient"
	"bankdash/internal/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOverview(w io.Writer, o apiclient.Overview) error {
	s := o.Stats
	fmt.Fprintf(w, "%s\n\n", o.User.FullName())
	fmt.Fprintf(w, "Balance   %s\n", core.FormatMoney(s.AccountBalance.Amount, s.AccountBalance.Currency))
	fmt.Fprintf(w, "Income    %s\n", core.FormatMoney(s.QuickStats.Income.Amount, s.QuickStats.Income.Currency))
	fmt.Fprintf(w, "Expenses  %s\n\n", core.FormatMoney(s.QuickStats.Expenses.Amount, s.QuickStats.Expenses.Currency))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMERCHANT\tAMOUNT\tID")
	for _, t := range s.MostRecentTransactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", core.FormatDate(t.Date), t.Merchant, core.FormatMoney(t.Amount, s.AccountBalance.Currency), t.ID)
	}
	return tw.Flush()
}

func printTransactions(w io.Writer, p core.Page[core.Transaction]) error {
	if len(p.Items) == 0 {
		_, err := fmt.Fprintln(w, "No transactions found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMERCHANT\tCATEGORY\tAMOUNT\tID")
	for _, t := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", core.FormatDate(t.Date), t.Merchant, t.Category, core.FormatMoney(t.Amount, ""), t.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pg := p.Pagination
	from := (pg.Page-1)*pg.PageSize + 1
	_, err := fmt.Fprintf(w, "\nShowing %d-%d of %d results (page %d of %d)\n",
		from, from+len(p.Items)-1, pg.TotalItems, pg.Page, pg.TotalPages)
	return err
}

func printTransaction(w io.Writer, t core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", label, value)
		}
	}
	row("ID", t.ID)
	row("Date", core.FormatDate(t.Date))
	row("Merchant", t.Merchant)
	row("Amount", core.FormatMoney(t.Amount, ""))
	row("Type", string(t.Type))
	row("Category", t.Category)
	row("Description", t.Description)
	row("Account", t.Account)
	row("Status", t.Status)
	row("Payment method", t.PaymentMethod)
	row("Reference", t.ReferenceNumber)
	return tw.Flush()
}
