package google

import (
	"fmt"
	"strings"
	"time"

	"bankdash/internal/core"
)

var requiredHeaders = []string{"ID", "Date", "Merchant", "Amount"}

// parseTransactions converts a values matrix (as returned by the Sheets API)
// into transactions. The first row is the header; columns are located by
// name so their order in the sheet does not matter. Rows that cannot be
// parsed are skipped and counted.
func parseTransactions(values [][]interface{}, loc *time.Location) ([]core.Transaction, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	col := map[string]int{}
	for _, h := range []string{"ID", "Date", "Merchant", "Amount", "Type", "Category", "Description", "Account", "Status", "PaymentMethod", "ReferenceNumber"} {
		col[h] = indexOf(headers, h)
	}
	var missing []string
	for _, h := range requiredHeaders {
		if col[h] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Transaction
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		date, err := parseSheetDate(safeGet(row, col["Date"]), loc)
		if err != nil {
			skipped++
			continue
		}
		amount, err := parseSheetAmount(safeGet(row, col["Amount"]))
		if err != nil {
			skipped++
			continue
		}
		t := core.Transaction{
			ID:              safeGet(row, col["ID"]),
			Date:            date,
			Merchant:        safeGet(row, col["Merchant"]),
			Amount:          amount,
			Type:            core.TransactionType(strings.ToLower(safeGet(row, col["Type"]))),
			Category:        safeGet(row, col["Category"]),
			Description:     safeGet(row, col["Description"]),
			Account:         safeGet(row, col["Account"]),
			Status:          strings.ToLower(safeGet(row, col["Status"])),
			PaymentMethod:   safeGet(row, col["PaymentMethod"]),
			ReferenceNumber: safeGet(row, col["ReferenceNumber"]),
		}
		if t.Type == "" {
			t.Type = core.TypeFor(t.Amount)
		}
		if err := t.Validate(); err != nil {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, skipped, nil
}

// parseSheetAmount reads amounts the way Sheets formats them, including a
// currency symbol and thousands separators ("-$1,234.56").
func parseSheetAmount(s string) (core.Money, error) {
	s = strings.NewReplacer("$", "", "€", "", "£", "", " ", "").Replace(s)
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	return core.ParseAmount(s)
}

// parseSheetDate accepts RFC 3339 timestamps, "2006-01-02 15:04" and bare
// dates; the latter two are read in loc.
func parseSheetDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", core.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
