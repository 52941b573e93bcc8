// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package waitfor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntilEventuallyTrue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	calls := 0
	err := Until(ctx, func() (bool, error) {
		calls++
		return calls > 3, nil
	}, WithInterval(10*time.Millisecond), WithTimeout(time.Second))
	if err != nil {
		t.Fatal("expected success, got:", err)
	}
	if calls != 4 {
		t.Fatal("unexpected number of polls:", calls)
	}
}

func TestUntilTimesOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	err := Until(ctx, func() (bool, error) {
		return false, nil
	}, WithName("the impossible"), WithInterval(5*time.Millisecond), WithTimeout(50*time.Millisecond))

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatal("expected TimeoutError, got:", err)
	}
	if timeout.What != "the impossible" {
		t.Fatal("timeout lost its condition name:", timeout.What)
	}
}

func TestUntilSwallowsPollErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	notListening := errors.New("connection refused")
	calls := 0
	err := Until(ctx, func() (bool, error) {
		calls++
		if calls < 3 {
			return false, notListening
		}
		return true, nil
	}, WithInterval(5*time.Millisecond), WithTimeout(time.Second))
	if err != nil {
		t.Fatal("poll errors before success must not propagate:", err)
	}
}

func TestUntilTimeoutCarriesLastError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	notListening := errors.New("connection refused")
	err := Until(ctx, func() (bool, error) {
		return false, notListening
	}, WithInterval(5*time.Millisecond), WithTimeout(30*time.Millisecond))

	if !errors.Is(err, notListening) {
		t.Fatal("TimeoutError must wrap the last poll failure, got:", err)
	}
}

func TestUntilRespectsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Until(ctx, func() (bool, error) {
		return false, nil
	}, WithInterval(5*time.Millisecond), WithTimeout(time.Minute))
	if !errors.Is(err, context.Canceled) {
		t.Fatal("expected context cancellation, got:", err)
	}
}

func TestNeverHoldsForTheWholeWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	calls := 0
	err := Never(ctx, func() (bool, error) {
		calls++
		return false, nil
	}, WithInterval(5*time.Millisecond), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal("condition never held, got:", err)
	}
	if calls < 2 {
		t.Fatal("expected repeated polls, got:", calls)
	}
}

func TestNeverFailsOnFirstObservation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	calls := 0
	err := Never(ctx, func() (bool, error) {
		calls++
		return calls == 2, nil
	}, WithName("forbidden state"), WithInterval(5*time.Millisecond), WithTimeout(time.Minute))
	if err == nil {
		t.Fatal("one true poll must fail the window")
	}
	if calls != 2 {
		t.Fatal("polling continued past the violation, polls:", calls)
	}
}

func TestNeverPropagatesPollErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broken := errors.New("rpc gone")
	err := Never(ctx, func() (bool, error) {
		return false, broken
	}, WithInterval(5*time.Millisecond), WithTimeout(time.Minute))
	if !errors.Is(err, broken) {
		t.Fatal("expected the poll error, got:", err)
	}
}

func TestUntilStableResetsOnRegression(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// true, true, false interleaving: must not settle at 3 until three
	// consecutive true polls happen.
	calls := 0
	err := UntilStable(ctx, func() (bool, error) {
		calls++
		return calls%3 != 0 || calls > 6, nil
	}, 3, WithInterval(5*time.Millisecond), WithTimeout(time.Second))
	if err != nil {
		t.Fatal("expected eventual stability, got:", err)
	}
	if calls < 9 {
		t.Fatal("settle count did not reset, polls:", calls)
	}
}

func TestUntilStableHoldsForSettleCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	calls := 0
	err := UntilStable(ctx, func() (bool, error) {
		calls++
		return true, nil
	}, 5, WithInterval(5*time.Millisecond), WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Fatal("expected exactly settle polls, got:", calls)
	}
}
