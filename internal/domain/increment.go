package domain

import "github.com/shopspring/decimal"

// Increment tiers by current amount. Upper bounds are inclusive, the last
// tier is open-ended.
var incrementTiers = []struct {
	ceiling   decimal.Decimal
	increment decimal.Decimal
}{
	{decimal.NewFromInt(10_000), decimal.NewFromInt(500)},
	{decimal.NewFromInt(100_000), decimal.NewFromInt(2_000)},
	{decimal.NewFromInt(200_000), decimal.NewFromInt(5_000)},
}

var topTierIncrement = decimal.NewFromInt(10_000)

// MinimumIncrement maps a current bid amount to the minimum allowed increase
// for the next bid. Pure and total; callers substitute the auction floor
// price before calling when no bid exists yet.
func MinimumIncrement(current decimal.Decimal) decimal.Decimal {
	for _, tier := range incrementTiers {
		if current.LessThanOrEqual(tier.ceiling) {
			return tier.increment
		}
	}
	return topTierIncrement
}

// NextMinimumBid is the lowest amount the next bid may propose.
func NextMinimumBid(current decimal.Decimal) decimal.Decimal {
	return current.Add(MinimumIncrement(current))
}
