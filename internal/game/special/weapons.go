package special

import (
	"fmt"

	"github.com/cory-johannsen/dpscalc/internal/game/combat"
	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
)

// Scythe deals max, max/2 and max/4 as three hitsplats. One accuracy check
// gates all three, so each uses the same accuracy.
func Scythe(ctx Context) (hitsplat.Damage, error) {
	if ctx.SpecialAttack {
		return hitsplat.Damage{}, fmt.Errorf("%w: scythe", ErrNoSpecialAttack)
	}
	hs := make([]hitsplat.Hitsplat, 0, 3)
	for _, divisor := range []int{1, 2, 4} {
		raw, err := hitsplat.Basic(ctx.MaxHit/divisor, ctx.Accuracy)
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

// Fang rolls accuracy twice and, on success, hits uniformly between
// floor(0.15*max) and floor(0.85*max). Misses land on 0.
func Fang(ctx Context) (hitsplat.Damage, error) {
	if ctx.SpecialAttack {
		return hitsplat.Damage{}, fmt.Errorf("%w: fang", ErrNoSpecialAttack)
	}
	acc := combat.RollTwice(ctx.Accuracy)
	lo, hi := FangRange(ctx.MaxHit)
	raw, err := hitsplat.Uniform(lo, hi, acc)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	h, err := finish(raw, ctx.Target)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	return hitsplat.NewDamage(ctx.AttackSpeed, h)
}

// FangRange returns the narrowed hit range for a fang-type weapon.
func FangRange(maxHit int) (lo, hi int) {
	if maxHit < 0 {
		maxHit = 0
	}
	return maxHit * 15 / 100, maxHit * 85 / 100
}

// AoE hits the primary target and either AdditionalTargets copies of it or
// each NamedTarget, up to MaxTargets in total. Each hitsplat is capped by
// its own target's hitpoints.
func AoE(ctx Context) (hitsplat.Damage, error) {
	if ctx.SpecialAttack {
		return hitsplat.Damage{}, fmt.Errorf("%w: aoe", ErrNoSpecialAttack)
	}
	limit := ctx.MaxTargets
	if limit <= 0 {
		limit = DefaultMaxTargets
	}

	targets := []Target{ctx.Target}
	if len(ctx.NamedTargets) > 0 {
		targets = append(targets, ctx.NamedTargets...)
	} else {
		for i := 0; i < ctx.AdditionalTargets; i++ {
			targets = append(targets, ctx.Target)
		}
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}

	raw, err := hitsplat.Basic(ctx.MaxHit, ctx.Accuracy)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	hs := make([]hitsplat.Hitsplat, 0, len(targets))
	for _, t := range targets {
		h, err := finish(raw, t)
		if err != nil {
			return hitsplat.Damage{}, fmt.Errorf("aoe target %q: %w", t.Name, err)
		}
		hs = append(hs, h)
	}
	return hitsplat.NewDamage(ctx.AttackSpeed, hs...)
}
