package app

import (
	"fmt"
	"strconv"

	"gofit/adapters/stats/clt"
	"gofit/domain/stats"
	"gofit/internal/report"
)

func num(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// Summary renders the result as a markdown report
func (r *ScenarioResult) Summary() string {
	doc := report.NewDocument(r.Scenario)
	switch {
	case r.Scan != nil:
		summarizeScan(doc, r.Scan)
	case r.Coffee != nil:
		summarizeCoffee(doc, r.Coffee)
	case r.Propagation != nil:
		summarizePropagation(doc, r.Propagation)
	case r.CLT != nil:
		summarizeCLT(doc, r.CLT)
	}
	return doc.Markdown()
}

func summarizeScan(doc *report.Document, rep *stats.ScanReport) {
	doc.Paragraph("%s scan of %d %s events (truth %s).", rep.Evaluator, rep.Events, rep.Density, num(rep.Truth))

	pairs := [][2]string{}
	if rep.Curve.Len() > 0 {
		m := rep.Curve.Min()
		pairs = append(pairs,
			[2]string{"grid points", strconv.Itoa(rep.Curve.Len())},
			[2]string{"grid minimum", fmt.Sprintf("%s at %s", num(m.Score), num(m.Hypothesis))},
		)
	}
	if rep.Fit != nil {
		pairs = append(pairs, [2]string{"parabola curvature", num(rep.Fit.Curvature)})
	}
	if rep.AsymmetricFit != nil {
		pairs = append(pairs, [2]string{"asymmetric curvatures", fmt.Sprintf("%s / %s", num(rep.AsymmetricFit.CurvatureLow), num(rep.AsymmetricFit.CurvatureHigh))})
	}
	if rep.Band != nil {
		pairs = append(pairs, [2]string{"threshold band", fmt.Sprintf("[%s, %s]", num(rep.Band.Lower), num(rep.Band.Upper))})
	}
	doc.KeyValues(pairs...)

	doc.Section("Estimates")
	rows := make([][]string, 0, len(rep.Estimates))
	for _, e := range rep.Estimates {
		rows = append(rows, []string{string(e.Method), report.FormatEstimate(e, report.DefaultSigDigits)})
	}
	doc.Table([]string{"Method", "Estimate"}, rows)

	if len(rep.Failures) > 0 {
		doc.Section("Failed steps")
		items := make([]string, len(rep.Failures))
		for i, f := range rep.Failures {
			items[i] = fmt.Sprintf("%s: %s", f.Step, f.Error)
		}
		doc.Bullets(items...)
	}
}

func summarizeCoffee(doc *report.Document, res *CoffeeResult) {
	doc.Paragraph("Straight-line fit of the coffee counter for %s < day < %s (%d readings, σ = %s cups).",
		num(res.Request.WindowLow), num(res.Request.WindowHigh), len(res.Observations), num(res.Request.Sigma))
	pairs := [][2]string{
		{"slope (cups/day)", report.FormatEstimate(res.Slope, report.DefaultSigDigits)},
		{"intercept (cups)", report.FormatEstimate(res.Intercept, report.DefaultSigDigits)},
		{"closed-form slope", report.FormatValue(res.ClosedForm.Slope, res.ClosedForm.SlopeErr, report.DefaultSigDigits)},
	}
	if res.Fit != nil {
		pairs = append(pairs,
			[2]string{"χ² / ndof", fmt.Sprintf("%.2f / %d", res.Fit.Chi2, res.Fit.Ndof)},
			[2]string{"χ² probability", fmt.Sprintf("%.3f", res.Fit.Probability)},
		)
	}
	doc.KeyValues(pairs...)

	rows := make([][]string, len(res.Observations))
	for i, o := range res.Observations {
		pull := ""
		if i < len(res.Pulls) {
			pull = fmt.Sprintf("%+.2f", res.Pulls[i])
		}
		rows[i] = []string{num(o.X), num(o.Y), pull}
	}
	doc.Section("Readings")
	doc.Table([]string{"Day", "Cups", "Pull"}, rows)
}

func summarizePropagation(doc *report.Document, res *PropagationResult) {
	in := res.Request.Inputs
	doc.Paragraph("x = %s, y = %s, ρ = %s, %d Monte Carlo samples.",
		report.FormatValue(in.MeanX, in.SigmaX, report.DefaultSigDigits),
		report.FormatValue(in.MeanY, in.SigmaY, report.DefaultSigDigits),
		num(in.Rho), res.Request.Samples)
	rows := make([][]string, len(res.Quantities))
	for i, q := range res.Quantities {
		rows[i] = []string{
			q.Name,
			report.FormatValue(q.Analytic.Value, q.Analytic.Sigma, report.DefaultSigDigits),
			report.FormatValue(q.MonteCarlo.Mean, q.MonteCarlo.StdDev, report.DefaultSigDigits),
			fmt.Sprintf("[%s, %s]", num(q.MonteCarlo.Lower), num(q.MonteCarlo.Upper)),
			fmt.Sprintf("%.3f", q.Agreement),
		}
	}
	doc.Table([]string{"Quantity", "Analytic", "Monte Carlo", "68% interval", "σ ratio"}, rows)
}

func summarizeCLT(doc *report.Document, res *clt.Result) {
	cfg := res.Config
	doc.Paragraph("%d sums of %d %s draws.", cfg.Trials, cfg.Terms, cfg.Source)
	pairs := [][2]string{
		{"mean", num(res.Mean)},
		{"standard deviation", num(res.StdDev)},
		{"median", num(res.Median)},
	}
	if res.HasMoments {
		pairs = append(pairs,
			[2]string{"expected mean", num(res.ExpectedMean)},
			[2]string{"expected σ", num(res.ExpectedSigma)},
		)
	} else {
		pairs = append(pairs, [2]string{"expected σ", "undefined (no finite variance)"})
	}
	pairs = append(pairs,
		[2]string{"χ² / ndof vs Gaussian", fmt.Sprintf("%.1f / %d", res.Chi2, res.Ndof)},
		[2]string{"χ² probability", fmt.Sprintf("%.3g", res.Probability)},
	)
	doc.KeyValues(pairs...)
}
