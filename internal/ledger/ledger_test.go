package ledger

import (
	"sync"
	"testing"
)

func TestNew_ClampsNegativeInitial(t *testing.T) {
	l := New(-5)
	if got := l.Balance(); got != 0 {
		t.Errorf("Balance() = %d, want 0", got)
	}
}

func TestReserve_NeverMutates(t *testing.T) {
	l := New(10)

	if !l.Reserve(10) {
		t.Error("Reserve(10) with balance 10 should succeed")
	}
	if got := l.Balance(); got != 10 {
		t.Errorf("Balance after successful Reserve = %d, want 10", got)
	}

	if l.Reserve(11) {
		t.Error("Reserve(11) with balance 10 should fail")
	}
	if got := l.Balance(); got != 10 {
		t.Errorf("Balance after failed Reserve = %d, want 10", got)
	}
}

func TestDebit_ClampsAtZero(t *testing.T) {
	l := New(3)
	l.Debit(5)
	if got := l.Balance(); got != 0 {
		t.Errorf("Balance after over-debit = %d, want 0", got)
	}
}

func TestDebit_IgnoresNonPositive(t *testing.T) {
	l := New(7)
	l.Debit(0)
	l.Debit(-2)
	if got := l.Balance(); got != 7 {
		t.Errorf("Balance = %d, want 7", got)
	}
}

func TestCredit(t *testing.T) {
	l := New(0)
	l.Credit(50)
	l.Credit(-10) // ignored
	if got := l.Balance(); got != 50 {
		t.Errorf("Balance = %d, want 50", got)
	}
}

func TestLedger_ConcurrentDebits(t *testing.T) {
	l := New(1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Debit(1)
		}()
	}
	wg.Wait()

	if got := l.Balance(); got != 900 {
		t.Errorf("Balance after 100 concurrent debits = %d, want 900", got)
	}
}
