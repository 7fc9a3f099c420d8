package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RenderLatencyChart draws one grouped bar per engine for each phase in
// samples and writes it to path as a PNG. Latencies are averaged across
// configs/runs that share an (Engine, Phase) pair.
func RenderLatencyChart(samples []Sample, path string) error {
	type key struct{ engine, phase string }
	sums := map[key]int64{}
	counts := map[key]int{}
	var engines, phases []string
	seenEngine := map[string]bool{}
	seenPhase := map[string]bool{}

	for _, s := range samples {
		k := key{s.Engine, s.Phase}
		sums[k] += s.LatencyNs
		counts[k]++
		if !seenEngine[s.Engine] {
			seenEngine[s.Engine] = true
			engines = append(engines, s.Engine)
		}
		if !seenPhase[s.Phase] {
			seenPhase[s.Phase] = true
			phases = append(phases, s.Phase)
		}
	}

	p := plot.New()
	p.Title.Text = "Average operation latency by engine"
	p.Y.Label.Text = "ns/op"
	p.NominalX(phases...)

	barWidth := vg.Points(15)
	for i, engine := range engines {
		values := make(plotter.Values, len(phases))
		for j, phase := range phases {
			k := key{engine, phase}
			if counts[k] > 0 {
				values[j] = float64(sums[k]) / float64(counts[k])
			}
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return fmt.Errorf("chart: new bar chart for %s: %w", engine, err)
		}
		bars.Offset = barWidth * vg.Length(i) * 1.2
		bars.Color = plotutil.Color(i)
		p.Add(bars)
		p.Legend.Add(engine, bars)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}
