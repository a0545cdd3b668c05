package hitsplat

import (
	"errors"
	"fmt"
)

// ErrInvalidAttackSpeed is returned for an attack speed <= 0.
var ErrInvalidAttackSpeed = errors.New("hitsplat: attack speed must be > 0")

// ErrNoHitsplats is returned when a Damage is constructed without hitsplats.
var ErrNoHitsplats = errors.New("hitsplat: damage requires at least one hitsplat")

// ThrallAttackSpeed is the fixed number of ticks between thrall attacks.
const ThrallAttackSpeed = 4

// Damage is one attack's complete output: its speed in ticks and one or
// more hitsplats landing together. Hitsplats are treated as independent.
type Damage struct {
	attackSpeed int
	hitsplats   []Hitsplat
}

// NewDamage builds a Damage.
//
// Precondition: attackSpeed > 0; at least one hitsplat.
func NewDamage(attackSpeed int, hitsplats ...Hitsplat) (Damage, error) {
	if attackSpeed <= 0 {
		return Damage{}, fmt.Errorf("%w: got %d", ErrInvalidAttackSpeed, attackSpeed)
	}
	if len(hitsplats) == 0 {
		return Damage{}, ErrNoHitsplats
	}
	hs := make([]Hitsplat, len(hitsplats))
	copy(hs, hitsplats)
	return Damage{attackSpeed: attackSpeed, hitsplats: hs}, nil
}

// ThrallDamage returns the thrall's attack: one Thrall hitsplat every 4 ticks.
func ThrallDamage() Damage {
	return Damage{attackSpeed: ThrallAttackSpeed, hitsplats: []Hitsplat{Thrall()}}
}

// AttackSpeed returns the ticks between attacks.
func (d Damage) AttackSpeed() int { return d.attackSpeed }

// Hitsplats returns a copy of the hitsplat list.
func (d Damage) Hitsplats() []Hitsplat {
	out := make([]Hitsplat, len(d.hitsplats))
	copy(out, d.hitsplats)
	return out
}

// MinHit returns the sum of hitsplat minimums (always 0).
func (d Damage) MinHit() int {
	total := 0
	for _, h := range d.hitsplats {
		total += h.MinHit()
	}
	return total
}

// MaxHit returns the sum of hitsplat maximums.
func (d Damage) MaxHit() int {
	total := 0
	for _, h := range d.hitsplats {
		total += h.MaxHit()
	}
	return total
}

// MeanHit returns the sum of hitsplat means.
func (d Damage) MeanHit() float64 {
	total := 0.0
	for _, h := range d.hitsplats {
		total += h.MeanHit()
	}
	return total
}

// ProbabilityNonzero returns 1 - prod(P_i(0)), assuming hitsplat independence.
func (d Damage) ProbabilityNonzero() float64 {
	allZero := 1.0
	for _, h := range d.hitsplats {
		allZero *= h.P(0)
	}
	return 1 - allZero
}

// PerTick returns mean damage per game tick.
func (d Damage) PerTick() float64 {
	if d.attackSpeed <= 0 {
		return 0
	}
	return d.MeanHit() / float64(d.attackSpeed)
}

// Joint returns the exact distribution of total damage per attack by
// convolving every hitsplat. The aggregate statistics above do not use it.
func (d Damage) Joint() Hitsplat {
	if len(d.hitsplats) == 0 {
		return fromDense([]float64{1})
	}
	out := d.hitsplats[0]
	for _, h := range d.hitsplats[1:] {
		out = Convolve(out, h)
	}
	return out
}

// DefaultTickSeconds is the game's tick length.
const DefaultTickSeconds = 0.6

// Rates converts per-tick damage into wall-clock rates.
type Rates struct {
	// TickSeconds is the length of one game tick in seconds.
	TickSeconds float64
}

// DefaultRates uses the 0.6 second game tick.
func DefaultRates() Rates {
	return Rates{TickSeconds: DefaultTickSeconds}
}

// PerSecond returns mean damage per second.
//
// Precondition: r.TickSeconds > 0.
func (r Rates) PerSecond(d Damage) float64 {
	return d.PerTick() / r.TickSeconds
}

// PerMinute returns mean damage per minute.
func (r Rates) PerMinute(d Damage) float64 {
	return r.PerSecond(d) * 60
}

// PerHour returns mean damage per hour.
func (r Rates) PerHour(d Damage) float64 {
	return r.PerMinute(d) * 60
}
