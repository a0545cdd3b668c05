// Package combat implements the roll, accuracy and max-hit model of the
// damage engine. All functions are pure.
package combat

import (
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// InvisibleLevelBonus is added by the game engine to every effective level.
const InvisibleLevelBonus = 8

// bonusOffset is added to every equipment bonus before it scales a level.
const bonusOffset = 64

// EffectiveLevel returns invisible + 8 + styleBonus, optionally scaled by a
// void-set level modifier. At most one void modifier is applied; extra
// arguments are ignored.
//
// Postcondition: Returns a Level >= 0.
func EffectiveLevel(invisible tracked.Level, styleBonus int, void ...tracked.Modifier) tracked.Level {
	l := invisible.Add(InvisibleLevelBonus+styleBonus, "invisible + style")
	if len(void) > 0 {
		l = l.Scale(void[0])
	}
	return l
}

// MaximumRoll returns level * (bonus + 64), then floors the product of each
// modifier in argument order.
//
// Postcondition: Returns a Roll; the value may be 0 or negative for bonus < -64.
func MaximumRoll(level tracked.Level, bonus int, mods ...tracked.Modifier) tracked.Roll {
	r := tracked.NewRoll(level.Value()*(bonus+bonusOffset), "level * (bonus + 64)")
	for _, m := range mods {
		r = r.Scale(m)
	}
	return r
}

// Accuracy converts an offensive and a defensive roll into the probability
// that an attack is not a miss.
//
// Postcondition: Returns a value in [0, 1].
func Accuracy(offensive, defensive tracked.Roll) float64 {
	return accuracy(float64(offensive.Value()), float64(defensive.Value()))
}

func accuracy(off, def float64) float64 {
	if off < 0 {
		off = 0
	}
	if def < 0 {
		def = 0
	}
	var p float64
	if off > def {
		p = 1 - (def+2)/(2*(off+1))
	} else {
		p = off / (2 * (def + 1))
	}
	return clamp01(p)
}

// RollTwice returns the accuracy of an attack that rolls twice and succeeds
// if either roll succeeds: 1 - (1 - p)^2.
//
// Precondition: p in [0, 1].
func RollTwice(p float64) float64 {
	p = clamp01(p)
	return 1 - (1-p)*(1-p)
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
