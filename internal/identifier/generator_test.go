package identifier

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

func TestNextFormat(t *testing.T) {
	gen := NewGenerator(NewMemorySequencer())
	at := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	got, err := gen.Next(context.Background(), KindGrievance, at)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "GRV-202609-000001" {
		t.Fatalf("Next=%q, want GRV-202609-000001", got)
	}

	got, err = gen.Next(context.Background(), KindReceipt, at)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "RCP-202609-000001" {
		t.Fatalf("receipt sequence must be scoped per kind, got %q", got)
	}
}

func TestNextScopesSequencePerPeriod(t *testing.T) {
	gen := NewGenerator(NewMemorySequencer())
	september := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	october := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	if _, err := gen.Next(context.Background(), KindGrievance, september); err != nil {
		t.Fatalf("Next: %v", err)
	}
	got, err := gen.Next(context.Background(), KindGrievance, october)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "GRV-202610-000001" {
		t.Fatalf("new period must restart the sequence, got %q", got)
	}
}

// Issuing N numbers concurrently for the same kind and period must yield N
// distinct numbers for all N.
func TestNextConcurrentCallersGetDistinctNumbers(t *testing.T) {
	gen := NewGenerator(NewMemorySequencer())
	at := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Next(context.Background(), KindGrievance, at)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, n)
	for number := range results {
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate number minted: %s", number)
		}
		seen[number] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct numbers, want %d", len(seen), n)
	}
}

type failingSequencer struct{}

func (failingSequencer) Next(context.Context, string) (int64, error) {
	return 0, errors.New("increment lost")
}

func TestNextSurfacesConflictWhenIncrementFails(t *testing.T) {
	gen := NewGenerator(failingSequencer{})
	_, err := gen.Next(context.Background(), KindGrievance, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestTransactionID(t *testing.T) {
	gen := NewGenerator(NewMemorySequencer())
	at := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	id := gen.TransactionID(at)
	if !strings.HasPrefix(id, "TXN") {
		t.Fatalf("TransactionID=%q, want TXN prefix", id)
	}
	if ok, _ := regexp.MatchString(`^TXN[0-9A-Z]+$`, id); !ok {
		t.Fatalf("TransactionID=%q has unexpected characters", id)
	}
	if other := gen.TransactionID(at); other == id {
		t.Fatalf("two ids for the same instant must differ, got %q twice", id)
	}
}
