// Package hitsplat builds exact discrete damage distributions and reduces
// them to aggregate statistics.
package hitsplat

import (
	"errors"
	"fmt"
	"math"
)

// Tolerance is the maximum allowed deviation of a distribution's total
// probability from 1.
const Tolerance = 1e-6

var (
	// ErrLengthMismatch is returned when damage and probability slices differ in length.
	ErrLengthMismatch = errors.New("hitsplat: damage and probability lengths differ")
	// ErrNotNormalized is returned when probabilities do not sum to 1 within Tolerance.
	ErrNotNormalized = errors.New("hitsplat: probabilities do not sum to 1")
	// ErrInvalidSupport is returned when damage values are not 0, 1, ..., n-1
	// or a probability is negative.
	ErrInvalidSupport = errors.New("hitsplat: invalid support")
	// ErrNegativeCap is returned for a hitpoints cap < 0.
	ErrNegativeCap = errors.New("hitsplat: hitpoints cap must be non-negative")
	// ErrInvalidInput is returned for a negative max hit or an accuracy outside [0, 1].
	ErrInvalidInput = errors.New("hitsplat: invalid input")
)

// Hitsplat is the probability distribution of one independent hit.
//
// Invariant: damage[i] == i for every i; sum(probability) == 1 within Tolerance;
// every probability >= 0. A Hitsplat is never mutated after construction.
type Hitsplat struct {
	damage      []int
	probability []float64
	mean        float64
}

// New validates and wraps a damage distribution. The slices are copied.
//
// Postcondition: Returns a Hitsplat or one of ErrLengthMismatch,
// ErrInvalidSupport, ErrNotNormalized.
func New(damage []int, probability []float64) (Hitsplat, error) {
	if len(damage) != len(probability) {
		return Hitsplat{}, fmt.Errorf("%w: %d damage values, %d probabilities", ErrLengthMismatch, len(damage), len(probability))
	}
	if len(damage) == 0 {
		return Hitsplat{}, fmt.Errorf("%w: empty distribution", ErrInvalidSupport)
	}
	total := 0.0
	for i, d := range damage {
		if d != i {
			return Hitsplat{}, fmt.Errorf("%w: damage[%d] = %d", ErrInvalidSupport, i, d)
		}
		p := probability[i]
		if p < -Tolerance || math.IsNaN(p) {
			return Hitsplat{}, fmt.Errorf("%w: probability[%d] = %v", ErrInvalidSupport, i, p)
		}
		total += p
	}
	if math.Abs(total-1) > Tolerance {
		return Hitsplat{}, fmt.Errorf("%w: sum = %.9f", ErrNotNormalized, total)
	}
	return fromDense(probability), nil
}

// MustNew is New that panics on error. Distributions built inside this
// module use it: a failure there is a bug, not an input error.
func MustNew(damage []int, probability []float64) Hitsplat {
	h, err := New(damage, probability)
	if err != nil {
		panic(err.Error())
	}
	return h
}

// fromDense wraps probability (indexed by damage) without validation.
// Tiny negative rounding residue is clamped to 0.
func fromDense(probability []float64) Hitsplat {
	n := len(probability)
	h := Hitsplat{damage: make([]int, n), probability: make([]float64, n)}
	for i, p := range probability {
		if p < 0 {
			p = 0
		}
		h.damage[i] = i
		h.probability[i] = p
		h.mean += float64(i) * p
	}
	return h
}

// FromDense builds a Hitsplat from a probability slice indexed by damage.
func FromDense(probability []float64) (Hitsplat, error) {
	damage := make([]int, len(probability))
	for i := range damage {
		damage[i] = i
	}
	return New(damage, probability)
}

// Basic returns the distribution of an attack that hits with probability
// accuracy for a uniform 0..maxHit, and otherwise deals 0.
//
// Precondition: maxHit >= 0; accuracy in [0, 1].
// Postcondition: len == maxHit+1; a maxHit of 0 yields {0: 1}.
func Basic(maxHit int, accuracy float64) (Hitsplat, error) {
	if maxHit < 0 {
		return Hitsplat{}, fmt.Errorf("%w: max hit %d", ErrInvalidInput, maxHit)
	}
	if accuracy < 0 || accuracy > 1 || math.IsNaN(accuracy) {
		return Hitsplat{}, fmt.Errorf("%w: accuracy %v", ErrInvalidInput, accuracy)
	}
	if maxHit == 0 {
		return fromDense([]float64{1}), nil
	}
	return fromDense(uniform(0, maxHit, accuracy)), nil
}

// BasicCapped is Basic followed by Clamp(hitpointsCap).
func BasicCapped(maxHit int, accuracy float64, hitpointsCap int) (Hitsplat, error) {
	h, err := Basic(maxHit, accuracy)
	if err != nil {
		return Hitsplat{}, err
	}
	return h.Clamp(hitpointsCap)
}

// uniform returns a dense distribution spreading mass evenly over lo..hi and
// putting the remaining 1-mass on 0.
//
// Precondition: 0 <= lo <= hi; mass in [0, 1].
func uniform(lo, hi int, mass float64) []float64 {
	p := make([]float64, hi+1)
	each := mass / float64(hi-lo+1)
	for d := lo; d <= hi; d++ {
		p[d] = each
	}
	p[0] += 1 - mass
	return p
}

// Uniform is the exported form of the success-range builder used by
// narrowed-range weapons: on success (probability mass) damage is uniform
// over lo..hi; otherwise it is 0.
func Uniform(lo, hi int, mass float64) (Hitsplat, error) {
	if lo < 0 || hi < lo {
		return Hitsplat{}, fmt.Errorf("%w: range %d..%d", ErrInvalidInput, lo, hi)
	}
	if mass < 0 || mass > 1 || math.IsNaN(mass) {
		return Hitsplat{}, fmt.Errorf("%w: mass %v", ErrInvalidInput, mass)
	}
	return fromDense(uniform(lo, hi, mass)), nil
}

// Point returns the distribution that always deals d.
func Point(d int) (Hitsplat, error) {
	if d < 0 {
		return Hitsplat{}, fmt.Errorf("%w: damage %d", ErrInvalidInput, d)
	}
	p := make([]float64, d+1)
	p[d] = 1
	return fromDense(p), nil
}

// Thrall returns the fixed thrall distribution: 0..4, each with probability 0.2.
func Thrall() Hitsplat {
	return fromDense([]float64{0.2, 0.2, 0.2, 0.2, 0.2})
}

// ClampToHitpoints truncates the support to 0..hitpointsCap and adds all mass
// above the cap to the bucket at hitpointsCap.
//
// Precondition: hitpointsCap >= 0; damage/probability form a valid Hitsplat.
// Postcondition: If hitpointsCap >= max(damage) the distribution is unchanged.
func ClampToHitpoints(damage []int, probability []float64, hitpointsCap int) (Hitsplat, error) {
	h, err := New(damage, probability)
	if err != nil {
		return Hitsplat{}, err
	}
	return h.Clamp(hitpointsCap)
}

// Clamp returns h with overkill mass folded into the hitpointsCap bucket.
func (h Hitsplat) Clamp(hitpointsCap int) (Hitsplat, error) {
	if hitpointsCap < 0 {
		return Hitsplat{}, fmt.Errorf("%w: got %d", ErrNegativeCap, hitpointsCap)
	}
	if hitpointsCap >= h.MaxHit() {
		return h, nil
	}
	p := make([]float64, hitpointsCap+1)
	copy(p, h.probability[:hitpointsCap+1])
	for _, q := range h.probability[hitpointsCap+1:] {
		p[hitpointsCap] += q
	}
	return fromDense(p), nil
}

// Mix returns the mixture sum(weights[i] * parts[i]).
//
// Precondition: len(weights) == len(parts); weights are >= 0 and sum to 1.
func Mix(weights []float64, parts []Hitsplat) (Hitsplat, error) {
	if len(weights) != len(parts) || len(parts) == 0 {
		return Hitsplat{}, fmt.Errorf("%w: %d weights for %d parts", ErrLengthMismatch, len(weights), len(parts))
	}
	size := 0
	for _, h := range parts {
		if h.Len() > size {
			size = h.Len()
		}
	}
	p := make([]float64, size)
	for i, h := range parts {
		if weights[i] < 0 {
			return Hitsplat{}, fmt.Errorf("%w: weight[%d] = %v", ErrInvalidInput, i, weights[i])
		}
		for d, q := range h.probability {
			p[d] += weights[i] * q
		}
	}
	return FromDense(trim(p))
}

// Convolve returns the exact distribution of the sum of two independent hits.
func Convolve(a, b Hitsplat) Hitsplat {
	p := make([]float64, a.Len()+b.Len()-1)
	for i, pa := range a.probability {
		if pa == 0 {
			continue
		}
		for j, pb := range b.probability {
			p[i+j] += pa * pb
		}
	}
	return fromDense(p)
}

// trim drops trailing zero buckets, keeping at least bucket 0.
func trim(p []float64) []float64 {
	n := len(p)
	for n > 1 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

// Len returns the number of buckets, max hit + 1.
func (h Hitsplat) Len() int { return len(h.probability) }

// Damage returns a copy of the damage values.
func (h Hitsplat) Damage() []int {
	out := make([]int, len(h.damage))
	copy(out, h.damage)
	return out
}

// Probability returns a copy of the probabilities.
func (h Hitsplat) Probability() []float64 {
	out := make([]float64, len(h.probability))
	copy(out, h.probability)
	return out
}

// P returns the probability of dealing exactly d; 0 outside the support.
func (h Hitsplat) P(d int) float64 {
	if d < 0 || d >= len(h.probability) {
		return 0
	}
	return h.probability[d]
}

// MinHit is always 0.
func (h Hitsplat) MinHit() int { return 0 }

// MaxHit returns the largest damage value in the support.
func (h Hitsplat) MaxHit() int { return len(h.probability) - 1 }

// MeanHit returns the expected damage.
func (h Hitsplat) MeanHit() float64 { return h.mean }

// ProbabilityNonzero returns 1 - P(0).
func (h Hitsplat) ProbabilityNonzero() float64 {
	if len(h.probability) == 0 {
		return 0
	}
	return 1 - h.probability[0]
}
