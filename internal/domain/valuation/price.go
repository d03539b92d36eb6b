package valuation

import (
	"math"

	"github.com/resellai/resell-api/internal/pkg/scorer"
)

const baseDepreciation = 0.8

// damageWeights discounts the base resale value by physical condition.
// Unknown classes fall through to the harshest discount.
var damageWeights = map[string]float64{
	scorer.DamageNoBroken:         1.0,
	scorer.DamageLightBroken:      0.85,
	scorer.DamageModeratelyBroken: 0.65,
	scorer.DamageSevereBroken:     0.45,
}

// ResalePrice estimates what the device should fetch on the marketplace.
// The two model scores blend in with different floors so a weak score
// dampens the price without zeroing it.
func ResalePrice(mrp float64, damage string, cnnScore, mlScore float64) float64 {
	weight, ok := damageWeights[damage]
	if !ok {
		weight = 0.4
	}

	price := mrp * baseDepreciation * weight
	price *= 0.5 + 0.5*cnnScore
	price *= 0.7 + 0.3*mlScore

	return math.Round(price*100) / 100
}
