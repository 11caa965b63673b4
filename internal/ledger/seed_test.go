package ledger

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bankdash/internal/core"
)

var refPattern = regexp.MustCompile(`^REF-[0-9]{8}$`)

func TestGenerateTransactions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	txs := GenerateTransactions(200, now, 7)
	if len(txs) != 200 {
		t.Fatalf("len = %d", len(txs))
	}

	seen := map[string]bool{}
	var income, expense int
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			t.Fatalf("tx %d invalid: %v", i, err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
		if i > 0 && tx.Date.After(txs[i-1].Date) {
			t.Fatalf("tx %d is newer than its predecessor", i)
		}
		if !tx.Date.Before(now) {
			t.Fatalf("tx %d is not in the past", i)
		}
		if tx.Type != core.TypeFor(tx.Amount) {
			t.Fatalf("tx %d type/sign mismatch", i)
		}
		if !refPattern.MatchString(tx.ReferenceNumber) {
			t.Fatalf("tx %d reference %q does not look like REF-########", i, tx.ReferenceNumber)
		}
		if tx.IsIncome() {
			income++
		} else {
			expense++
		}
	}
	if income == 0 || expense == 0 {
		t.Fatalf("expected both income and expenses, got %d/%d", income, expense)
	}

	if diff := cmp.Diff(txs, GenerateTransactions(200, now, 7)); diff != "" {
		t.Fatalf("generation is not deterministic (-first +second):\n%s", diff)
	}
	if GenerateTransactions(5, now, 8)[0].ID == txs[0].ID {
		t.Fatalf("different seeds should give different ids")
	}
}

func TestDemoUser(t *testing.T) {
	u := DemoUser("user@test.com", "", "", DemoSeed)
	if u.FirstName == "" || u.LastName == "" || u.Email != "user@test.com" {
		t.Fatalf("DemoUser() = %+v", u)
	}
	if diff := cmp.Diff(u, DemoUser("user@test.com", "", "", DemoSeed)); diff != "" {
		t.Errorf("DemoUser is not deterministic (-first +second):\n%s", diff)
	}

	set := DemoUser("user@test.com", "John", "Doe", DemoSeed)
	if set.FirstName != "John" || set.LastName != "Doe" {
		t.Errorf("configured names were replaced: %+v", set)
	}
}

func TestSortNewestFirstIsStable(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		{ID: "a", Date: d},
		{ID: "b", Date: d.Add(time.Hour)},
		{ID: "c", Date: d},
	}
	SortNewestFirst(txs)
	if txs[0].ID != "b" || txs[1].ID != "a" || txs[2].ID != "c" {
		t.Fatalf("unexpected order %s%s%s", txs[0].ID, txs[1].ID, txs[2].ID)
	}
}
