// Package engine composes the roll, max-hit and distribution models into a
// single damage calculation for one build against one target.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dpscalc/internal/game/combat"
	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/game/special"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

// ErrInvalidInput is returned when an Input fails validation.
var ErrInvalidInput = errors.New("engine: invalid input")

// Stat is one offensive skill: the boosted invisible level, the style
// bonus and the equipment bonus.
type Stat struct {
	Level      int
	StyleBonus int
	Bonus      int
}

// Modifier is a roll or damage modifier with the category that fixes its
// position in the chain. When Requires is set the modifier only applies to
// targets carrying that attribute.
type Modifier struct {
	Category combat.Category
	Value    tracked.Modifier
	Requires special.Attribute
}

// Defence describes the target's defensive roll inputs.
type Defence struct {
	Level int
	Bonus int
	// Roll overrides Level and Bonus when non-nil, including an explicit 0.
	Roll *int
}

// defenceStyleBonus makes the target's effective defence level level + 9.
const defenceStyleBonus = 1

// Input is everything needed to compute one attack's damage.
type Input struct {
	Name     string
	Mechanic special.Mechanic

	Accuracy Stat
	Strength Stat
	// AccuracyVoid and StrengthVoid scale the effective levels when set.
	AccuracyVoid *tracked.Modifier
	StrengthVoid *tracked.Modifier

	AccuracyModifiers []Modifier
	DamageModifiers   []Modifier

	// Spell replaces the strength-based max hit when set.
	Spell        *combat.Spell
	VisibleMagic *tracked.Level

	AttackSpeed   int
	SpecialAttack bool

	Target            special.Target
	Defence           Defence
	AdditionalTargets int
	NamedTargets      []special.Target

	Bolt          *special.Bolt
	DiaryBoost    bool
	VisibleRanged int
}

// Validate checks the scalar preconditions of in.
func (in Input) Validate() error {
	var errs []error
	if in.AttackSpeed <= 0 {
		errs = append(errs, fmt.Errorf("attack speed must be > 0, got %d", in.AttackSpeed))
	}
	if in.Accuracy.Level < 0 || in.Strength.Level < 0 {
		errs = append(errs, errors.New("levels must be >= 0"))
	}
	if in.Defence.Level < 0 || (in.Defence.Roll != nil && *in.Defence.Roll < 0) {
		errs = append(errs, errors.New("defence level and roll must be >= 0"))
	}
	if in.Target.Hitpoints < 0 {
		errs = append(errs, fmt.Errorf("target hitpoints must be >= 0, got %d", in.Target.Hitpoints))
	}
	if in.AdditionalTargets < 0 {
		errs = append(errs, fmt.Errorf("additional targets must be >= 0, got %d", in.AdditionalTargets))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, in.Name, errors.Join(errs...))
	}
	return nil
}

// Result is the outcome of one calculation.
type Result struct {
	Name          string
	Mechanic      special.Mechanic
	OffensiveRoll int
	DefensiveRoll int
	Accuracy      float64
	MaxHit        int
	Damage        hitsplat.Damage
	PerSecond     float64
}

// Calculator runs Inputs through the damage model.
//
// Calculator is safe for concurrent use once constructed.
type Calculator struct {
	registry   *special.Registry
	rates      hitsplat.Rates
	maxTargets int
	logger     *zap.Logger
}

// NewCalculator creates a Calculator.
//
// Precondition: registry and logger must be non-nil; rates.TickSeconds > 0.
func NewCalculator(registry *special.Registry, rates hitsplat.Rates, maxTargets int, logger *zap.Logger) *Calculator {
	return &Calculator{registry: registry, rates: rates, maxTargets: maxTargets, logger: logger}
}

// Rates returns the tick rates the calculator reports with.
func (c *Calculator) Rates() hitsplat.Rates { return c.rates }

// Calculate computes accuracy, max hit and the damage distribution for in.
//
// Postcondition: Returns a Result whose Damage is normalized, or an error.
func (c *Calculator) Calculate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	mechanic := in.Mechanic
	if mechanic == "" {
		mechanic = special.MechanicStandard
	}

	off, err := c.offensiveRoll(in)
	if err != nil {
		return Result{}, err
	}
	def := c.defensiveRoll(in.Defence)
	acc := combat.Accuracy(off, def)

	maxHit, err := c.maxHit(in)
	if err != nil {
		return Result{}, err
	}

	c.logger.Debug("rolls resolved",
		zap.String("scenario", in.Name),
		zap.Int("offensive_roll", off.Value()),
		zap.Int("defensive_roll", def.Value()),
		zap.Float64("accuracy", acc),
		zap.Int("max_hit", maxHit.Value()),
		zap.String("max_hit_provenance", maxHit.Comment()),
	)

	dmg, err := c.registry.Build(mechanic, special.Context{
		MaxHit:            maxHit.Value(),
		Accuracy:          acc,
		AttackSpeed:       in.AttackSpeed,
		SpecialAttack:     in.SpecialAttack,
		Target:            in.Target,
		AdditionalTargets: in.AdditionalTargets,
		NamedTargets:      in.NamedTargets,
		MaxTargets:        c.maxTargets,
		Bolt:              in.Bolt,
		DiaryBoost:        in.DiaryBoost,
		VisibleRanged:     in.VisibleRanged,
	})
	if err != nil {
		return Result{}, fmt.Errorf("building %s damage for %q: %w", mechanic, in.Name, err)
	}

	res := Result{
		Name:          in.Name,
		Mechanic:      mechanic,
		OffensiveRoll: off.Value(),
		DefensiveRoll: def.Value(),
		Accuracy:      acc,
		MaxHit:        maxHit.Value(),
		Damage:        dmg,
		PerSecond:     c.rates.PerSecond(dmg),
	}
	c.logger.Debug("damage computed",
		zap.String("scenario", in.Name),
		zap.String("mechanic", string(mechanic)),
		zap.Int("hitsplats", len(dmg.Hitsplats())),
		zap.Float64("mean_hit", dmg.MeanHit()),
		zap.Float64("per_second", res.PerSecond),
	)
	return res, nil
}

func (c *Calculator) offensiveRoll(in Input) (tracked.Roll, error) {
	lvl, err := tracked.NewLevel(in.Accuracy.Level, "accuracy level")
	if err != nil {
		return tracked.Roll{}, err
	}
	eff := effective(lvl, in.Accuracy.StyleBonus, in.AccuracyVoid)
	mods := ordered(in.AccuracyModifiers, in.Target)
	return combat.MaximumRoll(eff, in.Accuracy.Bonus, mods...), nil
}

func (c *Calculator) defensiveRoll(d Defence) tracked.Roll {
	if d.Roll != nil {
		return tracked.NewRoll(*d.Roll, "defence roll override")
	}
	eff := combat.EffectiveLevel(tracked.MustLevel(d.Level), defenceStyleBonus)
	return combat.MaximumRoll(eff, d.Bonus)
}

func (c *Calculator) maxHit(in Input) (tracked.DamageValue, error) {
	mods := ordered(in.DamageModifiers, in.Target)
	if in.Spell != nil {
		base, err := combat.SpellMaxHit(*in.Spell, in.VisibleMagic)
		if err != nil {
			return tracked.DamageValue{}, err
		}
		return combat.ApplyDamageModifiers(base, mods...), nil
	}
	lvl, err := tracked.NewLevel(in.Strength.Level, "strength level")
	if err != nil {
		return tracked.DamageValue{}, err
	}
	eff := effective(lvl, in.Strength.StyleBonus, in.StrengthVoid)
	return combat.MaxHit(combat.BaseDamage(eff, in.Strength.Bonus), mods...), nil
}

func effective(lvl tracked.Level, style int, void *tracked.Modifier) tracked.Level {
	if void != nil {
		return combat.EffectiveLevel(lvl, style, *void)
	}
	return combat.EffectiveLevel(lvl, style)
}

// ordered filters mods by target attribute and returns them in canonical order.
func ordered(mods []Modifier, t special.Target) []tracked.Modifier {
	var set combat.ModifierSet
	for _, m := range mods {
		if m.Requires != "" && !t.Has(m.Requires) {
			continue
		}
		set.Add(m.Category, m.Value)
	}
	return set.Ordered()
}
