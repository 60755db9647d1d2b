package arb

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestEvaluate_FindsOpportunity(t *testing.T) {
	t.Parallel()

	// Best odds: 2.10 at Alpha for outcome 1, 2.20 at Beta for outcome 2.
	// Margin = 1/2.10 + 1/2.20 = 0.9307.
	ev, err := Evaluate(
		Book{Name: "Alpha", Outcome1: 2.10, Outcome2: 1.80},
		Book{Name: "Beta", Outcome1: 1.90, Outcome2: 2.20},
		1000,
	)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ev.Found {
		t.Fatalf("expected an opportunity, got reason %q (margin %.5f)", ev.Reason, ev.Margin)
	}

	if ev.Legs[0].Book != "Alpha" || ev.Legs[0].Odds != 2.10 {
		t.Fatalf("leg 1 wrong: %+v", ev.Legs[0])
	}
	if ev.Legs[1].Book != "Beta" || ev.Legs[1].Odds != 2.20 {
		t.Fatalf("leg 2 wrong: %+v", ev.Legs[1])
	}

	// Both outcomes must return the same amount.
	r1 := ev.Legs[0].Stake * ev.Legs[0].Odds
	r2 := ev.Legs[1].Stake * ev.Legs[1].Odds
	if !almostEqual(r1, r2) {
		t.Fatalf("returns differ: %.4f vs %.4f", r1, r2)
	}
	if !almostEqual(r1-1000, ev.Profit) {
		t.Fatalf("profit = %.4f, return-investment = %.4f", ev.Profit, r1-1000)
	}
	if ev.Profit <= 0 {
		t.Fatalf("profit must be positive, got %.4f", ev.Profit)
	}
}

func TestEvaluate_NoMargin(t *testing.T) {
	t.Parallel()

	ev, err := Evaluate(
		Book{Name: "Alpha", Outcome1: 1.90, Outcome2: 1.90},
		Book{Name: "Beta", Outcome1: 1.85, Outcome2: 1.95},
		1000,
	)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Found {
		t.Fatalf("margin %.5f must not be an opportunity", ev.Margin)
	}
	if ev.Reason == "" {
		t.Fatalf("a miss must carry a reason")
	}
}

func TestEvaluate_BreakEvenIsNotAnOpportunity(t *testing.T) {
	t.Parallel()

	// 1/2 + 1/2 = 1.0 exactly: no profit, must not be reported as found.
	ev, err := Evaluate(
		Book{Name: "Alpha", Outcome1: 2.0, Outcome2: 1.5},
		Book{Name: "Beta", Outcome1: 1.5, Outcome2: 2.0},
		1000,
	)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Found {
		t.Fatalf("break-even margin must not be an opportunity")
	}
}

func TestEvaluate_SameBookDegenerate(t *testing.T) {
	t.Parallel()

	// Alpha has the best odds on both outcomes: margin is below 1 but the
	// position cannot be opened across books.
	ev, err := Evaluate(
		Book{Name: "Alpha", Outcome1: 2.30, Outcome2: 2.30},
		Book{Name: "Beta", Outcome1: 1.50, Outcome2: 1.50},
		1000,
	)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Found {
		t.Fatalf("same-book best odds must not be an opportunity")
	}
	if ev.Margin >= 1 {
		t.Fatalf("test expects a sub-1 margin, got %.5f", ev.Margin)
	}
}

func TestEvaluate_Validation(t *testing.T) {
	t.Parallel()

	good := Book{Name: "Alpha", Outcome1: 2.1, Outcome2: 2.1}

	if _, err := Evaluate(Book{Name: "", Outcome1: 2, Outcome2: 2}, good, 100); !errors.Is(err, ErrMissingBookName) {
		t.Fatalf("missing name: got %v", err)
	}
	if _, err := Evaluate(Book{Name: "B", Outcome1: 1.0, Outcome2: 2}, good, 100); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("odds of 1.0: got %v", err)
	}
	if _, err := Evaluate(good, good, 0); !errors.Is(err, ErrInvalidInvestment) {
		t.Fatalf("zero investment: got %v", err)
	}
}

func TestRoundStake(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{-3, 0},
		{41.7, 40},   // last digit 1: down to 0
		{42.99, 40},  // last digit 2: down to 0
		{43, 45},     // last digit 3: to 5
		{47.2, 45},   // last digit 7: to 5
		{48, 50},     // last digit 8: up to 10
		{99.9, 100},  // last digit 9: up to 10
		{100.4, 100}, // last digit 0: stays
		{105, 105},   // last digit 5: stays
	}
	for _, tc := range cases {
		if got := RoundStake(tc.in); got != tc.want {
			t.Errorf("RoundStake(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAdjustStakes(t *testing.T) {
	t.Parallel()

	ev, err := Evaluate(
		Book{Name: "Alpha", Outcome1: 2.10, Outcome2: 1.80},
		Book{Name: "Beta", Outcome1: 1.90, Outcome2: 2.20},
		1000,
	)
	if err != nil || !ev.Found {
		t.Fatalf("setup: %+v, %v", ev, err)
	}

	plan, err := AdjustStakes(ev, "Alpha", 500)
	if err != nil {
		t.Fatalf("AdjustStakes: %v", err)
	}

	// The preferred book keeps (roughly) the usual stake and the derived one
	// is hand-shaped, modulo the +-10/+-5 search.
	if plan.Legs[0].Book != "Alpha" {
		t.Fatalf("preferred leg must come first: %+v", plan.Legs)
	}
	if math.Abs(plan.Legs[0].Stake-500) > 10 {
		t.Fatalf("preferred stake drifted: %v", plan.Legs[0].Stake)
	}
	if rem := math.Mod(plan.Legs[1].Stake, 5); rem != 0 {
		t.Fatalf("derived stake %v must end in 0 or 5", plan.Legs[1].Stake)
	}

	// The plan must be at least as good as the unadjusted rounded pair.
	derived := RoundStake(500 * 2.10 / 2.20)
	base := math.Min(500*2.10, derived*2.20) - (500 + derived)
	if plan.Profit < base {
		t.Fatalf("search regressed: profit %.2f < baseline %.2f", plan.Profit, base)
	}
	if plan.TotalStake != plan.Legs[0].Stake+plan.Legs[1].Stake {
		t.Fatalf("total stake inconsistent: %+v", plan)
	}

	if _, err := AdjustStakes(ev, "Gamma", 500); !errors.Is(err, ErrUnknownBook) {
		t.Fatalf("unknown book: got %v", err)
	}
	if _, err := AdjustStakes(ev, "Alpha", 0); !errors.Is(err, ErrInvalidStake) {
		t.Fatalf("zero stake: got %v", err)
	}
	if _, err := AdjustStakes(Evaluation{}, "Alpha", 500); err == nil {
		t.Fatalf("no-opportunity adjust must fail")
	}
}
