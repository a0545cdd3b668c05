package special

import (
	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
)

// clawBranch is one way the four-hit cascade can resolve: the first
// successful roll draws X uniformly from lo..hi and split gives the four hits.
type clawBranch struct {
	weight float64
	lo, hi int
	split  func(x int) [4]int
}

// clawAllMissChance is the chance the last two hits deal 1 each when every
// roll misses.
const clawAllMissChance = 2.0 / 3.0

// Claws is a standard attack; its special attack rolls accuracy up to four
// times and only the first successful roll decides the damage of the
// remaining hits.
func Claws(ctx Context) (hitsplat.Damage, error) {
	if !ctx.SpecialAttack {
		return standard(ctx)
	}
	m := ctx.MaxHit
	if m < 0 {
		m = 0
	}
	w := ClawBranchWeights(ctx.Accuracy)

	branches := []clawBranch{
		{weight: w[0], lo: m / 2, hi: m - 1, split: func(x int) [4]int {
			return [4]int{x, x / 2, x / 4, x/4 + 1}
		}},
		{weight: w[1], lo: m * 3 / 8, hi: m * 7 / 8, split: func(x int) [4]int {
			return [4]int{0, x, x / 2, x/2 + 1}
		}},
		{weight: w[2], lo: m / 4, hi: m * 3 / 4, split: func(x int) [4]int {
			return [4]int{0, 0, x, x + 1}
		}},
		{weight: w[3], lo: m / 4, hi: m * 5 / 4, split: func(x int) [4]int {
			return [4]int{0, 0, 0, x}
		}},
	}

	var marginals [4]map[int]float64
	for i := range marginals {
		marginals[i] = make(map[int]float64)
	}
	for _, b := range branches {
		if b.weight == 0 {
			continue
		}
		hi := b.hi
		if hi < b.lo {
			hi = b.lo
		}
		each := b.weight / float64(hi-b.lo+1)
		for x := b.lo; x <= hi; x++ {
			for i, d := range b.split(x) {
				marginals[i][d] += each
			}
		}
	}
	allMiss := w[4]
	for i, d := range [4]int{0, 0, 1, 1} {
		marginals[i][d] += allMiss * clawAllMissChance
	}
	for i := range marginals {
		marginals[i][0] += allMiss * (1 - clawAllMissChance)
	}

	hs := make([]hitsplat.Hitsplat, 0, 4)
	for _, marginal := range marginals {
		raw, err := hitsplat.FromDense(dense(marginal))
		if err != nil {
			return hitsplat.Damage{}, err
		}
		h, err := finish(raw, ctx.Target)
		if err != nil {
			return hitsplat.Damage{}, err
		}
		hs = append(hs, h)
	}
	return hitsplat.NewDamage(ctx.AttackSpeed, hs...)
}

// ClawBranchWeights returns the probabilities that the first, second, third
// or fourth roll is the first success, followed by the all-miss probability.
func ClawBranchWeights(accuracy float64) [5]float64 {
	q := 1 - accuracy
	return [5]float64{accuracy, q * accuracy, q * q * accuracy, q * q * q * accuracy, q * q * q * q}
}

func dense(m map[int]float64) []float64 {
	top := 0
	for d := range m {
		if d > top {
			top = d
		}
	}
	out := make([]float64, top+1)
	for d, p := range m {
		out[d] = p
	}
	return out
}
