package special

import (
	"fmt"
	"math"
	"sort"

	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
)

// Reduction is a percentage damage reduction worn by the target. A Chance
// below 1 makes it a proc that only applies on some hits.
type Reduction struct {
	Name     string
	Fraction float64
	Chance   float64
}

// Canonical reduction names. Reductions apply in this order; any other name
// follows them in the order supplied.
const (
	ReductionElysian         = "elysian"
	ReductionJusticiar       = "justiciar"
	ReductionSpiritOfTheDead = "spirit_of_the_dead"
	ReductionDinhsBlock      = "dinhs_block"
)

var reductionRank = map[string]int{
	ReductionElysian:         0,
	ReductionJusticiar:       1,
	ReductionSpiritOfTheDead: 2,
	ReductionDinhsBlock:      3,
}

// Elysian reduces 25% of a hit on 70% of hits.
func Elysian() Reduction {
	return Reduction{Name: ReductionElysian, Fraction: 0.25, Chance: 0.7}
}

// Justiciar reduces a hit by defenceBonus/3000.
func Justiciar(defenceBonus int) Reduction {
	return Reduction{Name: ReductionJusticiar, Fraction: float64(defenceBonus) / 3000, Chance: 1}
}

// SpiritOfTheDead halves every hit while active.
func SpiritOfTheDead() Reduction {
	return Reduction{Name: ReductionSpiritOfTheDead, Fraction: 0.5, Chance: 1}
}

// DinhsBlock reduces every hit by 20% in block stance.
func DinhsBlock() Reduction {
	return Reduction{Name: ReductionDinhsBlock, Fraction: 0.2, Chance: 1}
}

// ReductionPreset returns a named reduction. Justiciar needs a defence bonus
// and is built with Justiciar instead.
func ReductionPreset(name string) (Reduction, error) {
	switch name {
	case ReductionElysian:
		return Elysian(), nil
	case ReductionSpiritOfTheDead:
		return SpiritOfTheDead(), nil
	case ReductionDinhsBlock:
		return DinhsBlock(), nil
	default:
		return Reduction{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidReduction, name)
	}
}

// Validate checks Fraction and Chance are within [0, 1].
func (r Reduction) Validate() error {
	if r.Fraction < 0 || r.Fraction > 1 || math.IsNaN(r.Fraction) {
		return fmt.Errorf("%w: %s fraction %v", ErrInvalidReduction, r.Name, r.Fraction)
	}
	if r.Chance < 0 || r.Chance > 1 || math.IsNaN(r.Chance) {
		return fmt.Errorf("%w: %s chance %v", ErrInvalidReduction, r.Name, r.Chance)
	}
	return nil
}

// apply returns floor(x * (1 - Fraction)).
func (r Reduction) apply(x int) int {
	return int(math.Floor(float64(x)*(1-r.Fraction) + 1e-9))
}

// OrderReductions returns rs in canonical application order.
func OrderReductions(rs []Reduction) []Reduction {
	out := make([]Reduction, len(rs))
	copy(out, rs)
	rank := func(r Reduction) int {
		if n, ok := reductionRank[r.Name]; ok {
			return n
		}
		return len(reductionRank)
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// Reduce applies every reduction in rs to x in order, flooring after each.
func Reduce(x int, rs ...Reduction) int {
	for _, r := range rs {
		x = r.apply(x)
	}
	return x
}

// ApplyReductions maps every raw damage value of h through the reduction
// chain. Reductions are folded in canonical order: at each step a bucket x
// moves Chance of its mass to the reduced value and keeps the rest.
//
// Postcondition: The result is normalized and its max hit <= h.MaxHit().
// Runs in O(len(rs) * h.MaxHit()).
func ApplyReductions(h hitsplat.Hitsplat, rs []Reduction) (hitsplat.Hitsplat, error) {
	if len(rs) == 0 {
		return h, nil
	}
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return hitsplat.Hitsplat{}, err
		}
	}

	cur := h.Probability()
	for _, r := range OrderReductions(rs) {
		next := make([]float64, len(cur))
		for x, p := range cur {
			if p == 0 {
				continue
			}
			next[r.apply(x)] += p * r.Chance
			next[x] += p * (1 - r.Chance)
		}
		cur = next
	}
	return hitsplat.FromDense(trimZeros(cur))
}

func trimZeros(p []float64) []float64 {
	n := len(p)
	for n > 1 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}
