// Package arb implements the two-outcome arbitrage calculator: finding a
// cross-bookmaker margin below 1, splitting an investment into guaranteed
// stakes, and adjusting those stakes to amounts that look like ordinary bets.
package arb

import (
	"errors"
	"fmt"
	"math"
)

// marginThreshold leaves headroom below 1.0 so float noise never turns a
// break-even market into a reported opportunity.
const marginThreshold = 0.99999

var (
	ErrInvalidOdds       = errors.New("arb: odds must be strictly greater than 1.0")
	ErrInvalidInvestment = errors.New("arb: investment must be at least 0.01")
	ErrMissingBookName   = errors.New("arb: bookmaker name is required")
	ErrUnknownBook       = errors.New("arb: preferred bookmaker not part of the evaluation")
	ErrInvalidStake      = errors.New("arb: usual stake must be positive")
)

// Book holds one bookmaker's decimal odds for the two outcomes of a market.
type Book struct {
	Name     string  `json:"name"`
	Outcome1 float64 `json:"outcome1"`
	Outcome2 float64 `json:"outcome2"`
}

// Leg is one side of an arbitrage position.
type Leg struct {
	Book    string  `json:"book"`
	Outcome int     `json:"outcome"`
	Odds    float64 `json:"odds"`
	Stake   float64 `json:"stake"`
}

// Evaluation is the outcome of checking two books for an arbitrage window.
// Found is false either when the combined margin is not below 1 or when both
// best odds sit at the same bookmaker, which makes the position impossible to
// open; Reason distinguishes the two.
type Evaluation struct {
	Found  bool    `json:"found"`
	Margin float64 `json:"margin"`
	Reason string  `json:"reason,omitempty"`

	Legs       [2]Leg  `json:"legs,omitempty"`
	TotalStake float64 `json:"totalStake,omitempty"`
	Profit     float64 `json:"profit,omitempty"`
}

// Plan is a stake pair adjusted away from machine-looking amounts.
type Plan struct {
	Legs       [2]Leg  `json:"legs"`
	TotalStake float64 `json:"totalStake"`
	Profit     float64 `json:"profit"`
}

func validBook(b Book) error {
	if b.Name == "" {
		return ErrMissingBookName
	}
	if b.Outcome1 <= 1 || b.Outcome2 <= 1 {
		return fmt.Errorf("%w: book %q", ErrInvalidOdds, b.Name)
	}
	return nil
}

// Evaluate picks the best odds per outcome across the two books and reports
// whether backing both outcomes guarantees a profit on the given investment.
// Stakes are proportioned so both outcomes return the same amount.
func Evaluate(book1, book2 Book, investment float64) (Evaluation, error) {
	if err := validBook(book1); err != nil {
		return Evaluation{}, err
	}
	if err := validBook(book2); err != nil {
		return Evaluation{}, err
	}
	if investment < 0.01 {
		return Evaluation{}, ErrInvalidInvestment
	}

	best1, from1 := book1.Outcome1, book1.Name
	if book2.Outcome1 > best1 {
		best1, from1 = book2.Outcome1, book2.Name
	}
	best2, from2 := book1.Outcome2, book1.Name
	if book2.Outcome2 > best2 {
		best2, from2 = book2.Outcome2, book2.Name
	}

	margin := 1/best1 + 1/best2
	ev := Evaluation{Margin: margin}

	if margin >= marginThreshold {
		ev.Reason = "no profitable margin"
		return ev, nil
	}
	if from1 == from2 {
		// Both best prices at one book: the hedge cannot be placed.
		ev.Reason = "best odds on both outcomes at the same bookmaker"
		return ev, nil
	}

	ev.Found = true
	ev.Legs = [2]Leg{
		{Book: from1, Outcome: 1, Odds: best1, Stake: (investment / best1) / margin},
		{Book: from2, Outcome: 2, Odds: best2, Stake: (investment / best2) / margin},
	}
	ev.TotalStake = ev.Legs[0].Stake + ev.Legs[1].Stake
	ev.Profit = investment/margin - investment
	return ev, nil
}

// RoundStake nudges an amount onto a 0- or 5-ending figure, the shape of a
// bet a person would type by hand. Last digit 0-2 rounds down to 0, 3-7 to 5,
// 8-9 up to the next 10.
func RoundStake(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	floor := math.Floor(amount)
	last := math.Mod(floor, 10)
	switch {
	case last < 3:
		return floor - last
	case last < 8:
		return floor - last + 5
	default:
		return floor - last + 10
	}
}

// stakeVariations are the offsets tried around the hand-shaped stake pair.
var stakeVariations = [9][2]float64{
	{0, 0}, {0, -5}, {0, 5},
	{-10, 0}, {-10, -5}, {-10, 5},
	{10, 0}, {10, -5}, {10, 5},
}

// AdjustStakes builds a plan anchored on the bettor's usual stake at their
// preferred book. The opposite stake is derived, rounded with RoundStake, and
// the pair is then varied by +-10 and +-5 to find the combination with the
// best worst-case profit. The best plan is returned even when that profit is
// negative; the caller decides whether a losing plan is worth showing.
func AdjustStakes(ev Evaluation, preferredBook string, usualStake float64) (Plan, error) {
	if !ev.Found {
		return Plan{}, errors.New("arb: no arbitrage position to adjust")
	}
	if usualStake <= 0 {
		return Plan{}, ErrInvalidStake
	}

	var pref, other Leg
	switch preferredBook {
	case ev.Legs[0].Book:
		pref, other = ev.Legs[0], ev.Legs[1]
	case ev.Legs[1].Book:
		pref, other = ev.Legs[1], ev.Legs[0]
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownBook, preferredBook)
	}

	derived := RoundStake(usualStake * pref.Odds / other.Odds)

	best := Plan{Profit: math.Inf(-1)}
	found := false
	for _, v := range stakeVariations {
		s := usualStake + v[0]
		o := derived + v[1]
		if s <= 0 || o <= 0 {
			continue
		}

		total := s + o
		minReturn := math.Min(s*pref.Odds, o*other.Odds)
		profit := minReturn - total

		if profit > best.Profit+0.00001 {
			pref.Stake, other.Stake = s, o
			best = Plan{Legs: [2]Leg{pref, other}, TotalStake: total, Profit: profit}
			found = true
		}
	}
	if !found {
		return Plan{}, errors.New("arb: no valid stake adjustment")
	}
	return best, nil
}
