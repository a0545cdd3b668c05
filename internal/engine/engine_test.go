package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dpscalc/internal/engine"
	"github.com/cory-johannsen/dpscalc/internal/game/combat"
	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/game/special"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
)

func newTestCalculator(t testing.TB) (*engine.Calculator, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return engine.NewCalculator(special.NewRegistry(), hitsplat.DefaultRates(), special.DefaultMaxTargets, zap.New(core)), logs
}

func roll(n int) *int { return &n }

func meleeInput() engine.Input {
	return engine.Input{
		Name:        "whip vs demon",
		Mechanic:    special.MechanicStandard,
		Accuracy:    engine.Stat{Level: 99, Bonus: 128},
		Strength:    engine.Stat{Level: 99, StyleBonus: 3, Bonus: 112},
		AttackSpeed: 4,
		Defence:     engine.Defence{Roll: roll(15000)},
		Target:      special.Target{Name: "greater demon", Attributes: []special.Attribute{special.AttributeDemon}},
	}
}

func TestCalculate_StandardMelee(t *testing.T) {
	calc, logs := newTestCalculator(t)
	res, err := calc.Calculate(meleeInput())
	require.NoError(t, err)

	assert.Equal(t, 20544, res.OffensiveRoll)
	assert.Equal(t, 15000, res.DefensiveRoll)
	assert.InDelta(t, 0.6349, res.Accuracy, 1e-4)
	// effective strength 110: floor(0.5 + 110*176/640) = 30
	assert.Equal(t, 30, res.MaxHit)
	assert.InDelta(t, res.Accuracy*15, res.Damage.MeanHit(), 1e-9)
	assert.InDelta(t, res.Damage.PerTick()/0.6, res.PerSecond, 1e-12)
	assert.Equal(t, special.MechanicStandard, res.Mechanic)

	assert.Equal(t, 1, logs.FilterMessage("rolls resolved").Len())
	assert.Equal(t, 1, logs.FilterMessage("damage computed").Len())
}

func TestCalculate_DefaultsToStandardMechanic(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.Mechanic = ""
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, special.MechanicStandard, res.Mechanic)
}

func TestCalculate_DefenceFromLevelAndBonus(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.Defence = engine.Defence{Level: 100, Bonus: 50}
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 109*114, res.DefensiveRoll)
}

func TestCalculate_ExplicitZeroDefenceRoll(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.Defence = engine.Defence{Level: 100, Bonus: 50, Roll: roll(0)}
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.DefensiveRoll)
	// 1 - (0+2)/(2*(20544+1))
	assert.InDelta(t, 1-2.0/(2*20545), res.Accuracy, 1e-12)

	in.Defence.Roll = nil
	res, err = calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 109*114, res.DefensiveRoll)
}

func TestCalculate_ModifiersCanonicalOrderAndTargetGating(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.DamageModifiers = []engine.Modifier{
		{Category: combat.CategoryTarget, Value: tracked.MustModifier(1.3, "vs demon"), Requires: special.AttributeDemon},
		{Category: combat.CategoryEquipment, Value: tracked.MustModifier(0.9, "set penalty")},
	}
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	// 30 -> floor(27.0) = 27 -> floor(35.1) = 35
	assert.Equal(t, 35, res.MaxHit)

	in.Target.Attributes = nil
	res, err = calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 27, res.MaxHit)
}

func TestCalculate_AccuracyVoidAndModifiers(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	void := tracked.MustModifier(1.1, "void")
	in.AccuracyVoid = &void
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 117*192, res.OffensiveRoll)

	in.AccuracyModifiers = []engine.Modifier{{Category: combat.CategoryStyle, Value: tracked.MustModifier(1.2, "salve")}}
	res, err = calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, tracked.Floor(117*192, 1.2), res.OffensiveRoll)
}

func TestCalculate_PoweredSpell(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	spell, err := combat.SpellPreset("trident_of_the_swamp")
	require.NoError(t, err)
	in.Spell = &spell

	_, err = calc.Calculate(in)
	assert.True(t, errors.Is(err, combat.ErrMissingMagicLevel))

	magic := tracked.MustLevel(99)
	in.VisibleMagic = &magic
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, 31, res.MaxHit)
}

func TestCalculate_SpecialAttackOnPlainWeapon(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.SpecialAttack = true
	_, err := calc.Calculate(in)
	assert.True(t, errors.Is(err, special.ErrNoSpecialAttack))
}

func TestCalculate_UnknownMechanic(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.Mechanic = "trebuchet"
	_, err := calc.Calculate(in)
	assert.True(t, errors.Is(err, special.ErrUnknownMechanic))
}

func TestCalculate_InvalidInput(t *testing.T) {
	calc, _ := newTestCalculator(t)
	in := meleeInput()
	in.AttackSpeed = 0
	in.Accuracy.Level = -1
	_, err := calc.Calculate(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidInput))
	assert.Contains(t, err.Error(), "attack speed")
	assert.Contains(t, err.Error(), "levels")
}

func TestCalculate_AoEUsesConfiguredTargetLimit(t *testing.T) {
	calc := engine.NewCalculator(special.NewRegistry(), hitsplat.DefaultRates(), 3, zap.NewNop())
	in := meleeInput()
	in.Mechanic = special.MechanicAoE
	in.AdditionalTargets = 10
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	assert.Len(t, res.Damage.Hitsplats(), 3)
}

func TestCalculate_Property_MechanicsNormalized(t *testing.T) {
	calc := engine.NewCalculator(special.NewRegistry(), hitsplat.DefaultRates(), special.DefaultMaxTargets, zap.NewNop())
	ruby, err := special.NewBolt(special.BoltRuby)
	require.NoError(t, err)
	mechanics := []special.Mechanic{
		special.MechanicStandard, special.MechanicScythe, special.MechanicFang,
		special.MechanicClaws, special.MechanicAoE, special.MechanicBolt,
	}
	rapid.Check(t, func(rt *rapid.T) {
		in := engine.Input{
			Name:              "prop",
			Mechanic:          rapid.SampledFrom(mechanics).Draw(rt, "mechanic"),
			Accuracy:          engine.Stat{Level: rapid.IntRange(1, 120).Draw(rt, "att"), Bonus: rapid.IntRange(-64, 200).Draw(rt, "att_bonus")},
			Strength:          engine.Stat{Level: rapid.IntRange(1, 120).Draw(rt, "str"), Bonus: rapid.IntRange(-64, 200).Draw(rt, "str_bonus")},
			AttackSpeed:       rapid.IntRange(1, 7).Draw(rt, "speed"),
			Defence:           engine.Defence{Level: rapid.IntRange(0, 400).Draw(rt, "def"), Bonus: rapid.IntRange(-64, 300).Draw(rt, "def_bonus")},
			Target:            special.Target{Hitpoints: rapid.IntRange(0, 600).Draw(rt, "hp")},
			AdditionalTargets: rapid.IntRange(0, 12).Draw(rt, "extra"),
			Bolt:              &ruby,
		}
		in.SpecialAttack = in.Mechanic == special.MechanicClaws || in.Mechanic == special.MechanicBolt
		res, err := calc.Calculate(in)
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, res.Accuracy, 0.0)
		assert.LessOrEqual(rt, res.Accuracy, 1.0)
		total := 0.0
		for _, h := range res.Damage.Hitsplats() {
			s := 0.0
			for _, p := range h.Probability() {
				s += p
			}
			assert.InDelta(rt, 1.0, s, 1e-6)
			total += h.MeanHit()
		}
		assert.Equal(rt, total, res.Damage.MeanHit())
	})
}
