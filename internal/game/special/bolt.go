package special

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// BoltKind names an enchanted bolt.
type BoltKind string

// Bolt kinds. Opal, pearl and dragonstone add a flat bonus from the visible
// ranged level; diamond and onyx hit guaranteed with a boosted max; ruby deals
// a share of the target's current hitpoints.
const (
	BoltOpal        BoltKind = "opal"
	BoltPearl       BoltKind = "pearl"
	BoltDragonstone BoltKind = "dragonstone"
	BoltDiamond     BoltKind = "diamond"
	BoltOnyx        BoltKind = "onyx"
	BoltRuby        BoltKind = "ruby"
)

const (
	// diaryProcBoost is the proc chance multiplier granted by the achievement diary.
	diaryProcBoost = 1.1
	// specialProcBoost doubles proc chance during a special attack.
	specialProcBoost = 2.0
	// rubyCap is the largest hit a ruby bolt effect can deal.
	rubyCap = 100
)

// Bolt is an enchanted bolt with a proc chance and an effect.
type Bolt struct {
	Kind BoltKind
	// Chance is the base proc chance.
	Chance float64
}

var boltChances = map[BoltKind]float64{
	BoltOpal:        0.05,
	BoltPearl:       0.06,
	BoltDragonstone: 0.06,
	BoltDiamond:     0.10,
	BoltOnyx:        0.11,
	BoltRuby:        0.06,
}

// NewBolt returns a bolt of kind with its default proc chance.
func NewBolt(kind BoltKind) (Bolt, error) {
	c, ok := boltChances[kind]
	if !ok {
		return Bolt{}, fmt.Errorf("%w: unknown bolt %q", ErrMissingBolt, kind)
	}
	return Bolt{Kind: kind, Chance: c}, nil
}

// ProcChance returns the bolt's effective proc chance, capped at 1.
func ProcChance(b Bolt, diary, specialAttack bool) float64 {
	c := b.Chance
	if diary {
		c *= diaryProcBoost
	}
	if specialAttack {
		c *= specialProcBoost
	}
	return math.Min(c, 1)
}

// boltEffect returns the distribution of a hit on which the bolt procs. The
// effect can exceed the weapon's normal max hit.
func boltEffect(ctx Context) (hitsplat.Hitsplat, error) {
	m := ctx.MaxHit
	flat := func(fraction float64) (hitsplat.Hitsplat, error) {
		if ctx.VisibleRanged <= 0 {
			return hitsplat.Hitsplat{}, fmt.Errorf("%w: %s", ErrMissingRangedLevel, ctx.Bolt.Kind)
		}
		bonus := tracked.Floor(ctx.VisibleRanged, fraction)
		return hitsplat.Uniform(bonus, m+bonus, 1)
	}
	switch ctx.Bolt.Kind {
	case BoltOpal:
		return flat(0.10)
	case BoltPearl:
		return flat(1.0 / 15)
	case BoltDragonstone:
		return flat(0.20)
	case BoltDiamond:
		return hitsplat.Basic(tracked.Floor(m, 1.15), 1)
	case BoltOnyx:
		return hitsplat.Basic(tracked.Floor(m, 1.20), 1)
	case BoltRuby:
		d := tracked.Floor(ctx.Target.current(), 0.2)
		if d > rubyCap {
			d = rubyCap
		}
		return hitsplat.Point(d)
	default:
		return hitsplat.Hitsplat{}, fmt.Errorf("%w: unknown bolt %q", ErrMissingBolt, ctx.Bolt.Kind)
	}
}

// BoltProc mixes three outcomes: the bolt procs (effect hit), the attack
// hits normally, or it misses. A special attack doubles the proc chance.
func BoltProc(ctx Context) (hitsplat.Damage, error) {
	if ctx.Bolt == nil {
		return hitsplat.Damage{}, ErrMissingBolt
	}
	proc := ProcChance(*ctx.Bolt, ctx.DiaryBoost, ctx.SpecialAttack)
	effect, err := boltEffect(ctx)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	normal, err := hitsplat.Basic(ctx.MaxHit, ctx.Accuracy)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	raw, err := hitsplat.Mix([]float64{proc, 1 - proc}, []hitsplat.Hitsplat{effect, normal})
	if err != nil {
		return hitsplat.Damage{}, err
	}
	h, err := finish(raw, ctx.Target)
	if err != nil {
		return hitsplat.Damage{}, err
	}
	return hitsplat.NewDamage(ctx.AttackSpeed, h)
}
