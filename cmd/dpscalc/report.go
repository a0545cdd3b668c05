package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/sweep"
)

// report renders sweep outcomes as an aligned table.
type report struct {
	rates   hitsplat.Rates
	detail  bool
	samples int
	source  hitsplat.Source
}

func (r report) write(w io.Writer, outcomes []sweep.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "RANK\tSCENARIO\tMECHANIC\tACCURACY\tMAX HIT\tMEAN HIT\tP(>0)\tDPS\tDPM"
	if r.samples > 0 {
		header += "\tSAMPLED MEAN"
	}
	fmt.Fprintln(tw, header)

	for i, o := range sweep.Rank(outcomes) {
		d := o.Result.Damage
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f%%\t%d\t%.3f\t%.4f\t%.3f\t%.1f",
			i+1, o.Name, o.Result.Mechanic, 100*o.Result.Accuracy,
			d.MaxHit(), d.MeanHit(), d.ProbabilityNonzero(),
			o.Result.PerSecond, r.rates.PerMinute(d))
		if r.samples > 0 {
			fmt.Fprintf(tw, "\t%.3f", sampledMean(d, r.source, r.samples))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "FAILED %s: %v\n", o.Name, o.Err)
		}
	}

	if !r.detail {
		return nil
	}
	for _, o := range sweep.Rank(outcomes) {
		fmt.Fprintf(w, "\n%s\n", o.Name)
		for j, h := range o.Result.Damage.Hitsplats() {
			fmt.Fprintf(w, "  hitsplat %d (mean %.3f):", j+1, h.MeanHit())
			for k, d := range h.Damage() {
				if p := h.Probability()[k]; p > 0 {
					fmt.Fprintf(w, " %d:%.4f", d, p)
				}
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// sampledMean draws n attacks and returns the average total damage.
func sampledMean(d hitsplat.Damage, src hitsplat.Source, n int) float64 {
	total := 0
	for _, h := range d.Hitsplats() {
		for _, v := range h.RandomHit(src, n) {
			total += v
		}
	}
	return float64(total) / float64(n)
}
