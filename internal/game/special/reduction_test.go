package special_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/game/special"
)

func TestReduce_SequentialFlooring(t *testing.T) {
	chain := special.OrderReductions([]special.Reduction{
		special.DinhsBlock(), special.SpiritOfTheDead(), special.Justiciar(300), special.Elysian(),
	})
	names := make([]string, len(chain))
	for i, r := range chain {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		special.ReductionElysian, special.ReductionJusticiar,
		special.ReductionSpiritOfTheDead, special.ReductionDinhsBlock,
	}, names)
	// 100 -> 75 -> floor(67.5)=67 -> floor(33.5)=33 -> floor(26.4)=26
	assert.Equal(t, 26, special.Reduce(100, chain...))
}

func TestReduce_SmallHitsDifferFromAggregate(t *testing.T) {
	// Per-step: floor(floor(3*0.5)*0.8) = 0; a single 0.4 factor would give 1.
	assert.Equal(t, 0, special.Reduce(3, special.SpiritOfTheDead(), special.DinhsBlock()))
}

func TestOrderReductions_UnknownNamesFollowInSuppliedOrder(t *testing.T) {
	custom1 := special.Reduction{Name: "ward", Fraction: 0.1, Chance: 1}
	custom2 := special.Reduction{Name: "aegis", Fraction: 0.1, Chance: 1}
	got := special.OrderReductions([]special.Reduction{custom1, special.DinhsBlock(), custom2})
	assert.Equal(t, special.ReductionDinhsBlock, got[0].Name)
	assert.Equal(t, "ward", got[1].Name)
	assert.Equal(t, "aegis", got[2].Name)
}

func TestApplyReductions_ElysianProcSplitsEachValue(t *testing.T) {
	h, err := hitsplat.Point(20)
	require.NoError(t, err)
	out, err := special.ApplyReductions(h, []special.Reduction{special.Elysian()})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, out.P(15), 1e-12)
	assert.InDelta(t, 0.3, out.P(20), 1e-12)
	assert.Equal(t, 20, out.MaxHit())
}

func TestApplyReductions_ProcCombinedWithDeterministic(t *testing.T) {
	h, _ := hitsplat.Point(20)
	out, err := special.ApplyReductions(h, []special.Reduction{special.SpiritOfTheDead(), special.Elysian()})
	require.NoError(t, err)
	// active: floor(floor(20*0.75)*0.5) = 7; inactive: floor(20*0.5) = 10
	assert.InDelta(t, 0.7, out.P(7), 1e-12)
	assert.InDelta(t, 0.3, out.P(10), 1e-12)
	assert.Equal(t, 10, out.MaxHit())
}

func TestApplyReductions_BeforeHitpointCap(t *testing.T) {
	d, err := special.Standard(special.Context{
		MaxHit: 20, Accuracy: 1, AttackSpeed: 4,
		Target: special.Target{Hitpoints: 10, Reductions: []special.Reduction{special.Elysian()}},
	})
	require.NoError(t, err)
	h := d.Hitsplats()[0]
	assert.Equal(t, 10, h.MaxHit())
	assert.InDelta(t, 1.0, sum(h.Probability()), 1e-9)
	// 14 unreduced stays above the cap; reduced floor(14*0.75)=10 lands on it too.
	assert.Greater(t, h.P(10), h.P(9))
}

func TestApplyReductions_InvalidReduction(t *testing.T) {
	h, _ := hitsplat.Point(5)
	_, err := special.ApplyReductions(h, []special.Reduction{{Name: "bad", Fraction: 1.5, Chance: 1}})
	assert.True(t, errors.Is(err, special.ErrInvalidReduction))
	_, err = special.ApplyReductions(h, []special.Reduction{{Name: "bad", Fraction: 0.5, Chance: -1}})
	assert.True(t, errors.Is(err, special.ErrInvalidReduction))
}

func TestReductionPreset(t *testing.T) {
	r, err := special.ReductionPreset(special.ReductionElysian)
	require.NoError(t, err)
	assert.Equal(t, 0.7, r.Chance)
	_, err = special.ReductionPreset(special.ReductionJusticiar)
	assert.True(t, errors.Is(err, special.ErrInvalidReduction))
}

func TestApplyReductions_Property_NormalizedAndNeverIncreases(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHit := rapid.IntRange(0, 100).Draw(rt, "max_hit")
		acc := rapid.Float64Range(0, 1).Draw(rt, "accuracy")
		h, err := hitsplat.Basic(maxHit, acc)
		require.NoError(rt, err)

		var rs []special.Reduction
		if rapid.Bool().Draw(rt, "elysian") {
			rs = append(rs, special.Elysian())
		}
		if rapid.Bool().Draw(rt, "justiciar") {
			rs = append(rs, special.Justiciar(rapid.IntRange(0, 400).Draw(rt, "def_bonus")))
		}
		if rapid.Bool().Draw(rt, "sotd") {
			rs = append(rs, special.SpiritOfTheDead())
		}
		if rapid.Bool().Draw(rt, "dinh") {
			rs = append(rs, special.DinhsBlock())
		}

		out, err := special.ApplyReductions(h, rs)
		require.NoError(rt, err)
		assert.InDelta(rt, 1.0, sum(out.Probability()), 1e-6)
		assert.LessOrEqual(rt, out.MaxHit(), h.MaxHit())
		assert.LessOrEqual(rt, out.MeanHit(), h.MeanHit()+1e-9)
	})
}

func TestApplyReductions_ManyProcsStayNormalized(t *testing.T) {
	h, err := hitsplat.Basic(50, 0.8)
	require.NoError(t, err)
	rs := make([]special.Reduction, 64)
	for i := range rs {
		rs[i] = special.Reduction{Name: "ward", Fraction: 0.01, Chance: 0.5}
	}
	start := time.Now()
	out, err := special.ApplyReductions(h, rs)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.InDelta(t, 1.0, sum(out.Probability()), 1e-9)
	assert.LessOrEqual(t, out.MaxHit(), 50)
	assert.InDelta(t, h.P(0), out.P(0), 1e-12, "zero hits are unaffected")
}

func TestApplyReductions_MatchesBranchEnumeration(t *testing.T) {
	rs := []special.Reduction{
		special.Elysian(),
		{Name: "ward", Fraction: 0.3, Chance: 0.4},
		special.DinhsBlock(),
		{Name: "aegis", Fraction: 0.5, Chance: 0.25},
	}
	h, err := hitsplat.Basic(40, 0.9)
	require.NoError(t, err)
	out, err := special.ApplyReductions(h, rs)
	require.NoError(t, err)

	ordered := special.OrderReductions(rs)
	var procs []int
	for i, r := range ordered {
		if r.Chance < 1 {
			procs = append(procs, i)
		}
	}
	want := make([]float64, h.Len())
	for x, p := range h.Probability() {
		for mask := 0; mask < 1<<len(procs); mask++ {
			w := 1.0
			active := map[int]bool{}
			for bit, idx := range procs {
				if mask&(1<<bit) != 0 {
					active[idx] = true
					w *= ordered[idx].Chance
				} else {
					w *= 1 - ordered[idx].Chance
				}
			}
			var chain []special.Reduction
			for i, r := range ordered {
				if r.Chance >= 1 || active[i] {
					chain = append(chain, r)
				}
			}
			want[special.Reduce(x, chain...)] += p * w
		}
	}
	for d, p := range want {
		assert.InDelta(t, p, out.P(d), 1e-12, "damage %d", d)
	}
}
