package combat

import (
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// BaseDamage returns 0.5 + level * (bonus + 64) / 640. The result is left
// unfloored; MaxHit floors it before applying modifiers.
func BaseDamage(level tracked.Level, bonus int) float64 {
	return 0.5 + float64(level.Value()*(bonus+bonusOffset))/640
}

// MaxHit floors base and applies each damage modifier in order, flooring
// after every multiplication.
//
// Postcondition: Returns a DamageValue >= 0 for base >= 0.
func MaxHit(base float64, mods ...tracked.Modifier) tracked.DamageValue {
	return ApplyDamageModifiers(tracked.FloorDamage(base), mods...)
}

// ApplyDamageModifiers applies mods to an already integral max hit in order.
func ApplyDamageModifiers(d tracked.DamageValue, mods ...tracked.Modifier) tracked.DamageValue {
	for _, m := range mods {
		d = d.Scale(m)
	}
	return d
}
