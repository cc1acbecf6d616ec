// Package report formats fit results for people: values rounded to their
// uncertainty, markdown summaries and an HTML rendering of them.
package report

import (
	"fmt"
	"math"
	"strconv"

	"gofit/domain/stats"
)

// DefaultSigDigits is the number of significant digits kept in an uncertainty
const DefaultSigDigits = 2

// Decimals returns the number of decimal places that keep sig significant
// digits of err. Negative results mean rounding left of the decimal point.
func Decimals(err float64, sig int) int {
	if sig < 1 {
		sig = 1
	}
	exp := int(math.Floor(math.Log10(err)))
	// Log10 is not exact at powers of ten
	if math.Pow(10, float64(exp+1)) <= err {
		exp++
	} else if math.Pow(10, float64(exp)) > err {
		exp--
	}
	d := sig - 1 - exp
	// 0.0996 at two digits rounds up to 0.10
	if roundTo(err, d) >= math.Pow(10, float64(exp+1)) {
		d--
	}
	return d
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		p := math.Pow(10, float64(-decimals))
		return math.Round(v/p) * p
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func formatAt(v float64, decimals int) string {
	if decimals > 0 {
		return strconv.FormatFloat(roundTo(v, decimals), 'f', decimals, 64)
	}
	return strconv.FormatFloat(roundTo(v, decimals), 'f', 0, 64)
}

func usable(err float64) bool {
	return err > 0 && !math.IsInf(err, 0) && !math.IsNaN(err)
}

// FormatValue renders "value ± err" with err rounded to sig significant
// digits and value rounded to the same decimal place
func FormatValue(value, err float64, sig int) string {
	if !usable(err) {
		return fmt.Sprintf("%g ± %g", value, err)
	}
	d := Decimals(err, sig)
	return formatAt(value, d) + " ± " + formatAt(err, d)
}

// FormatAsymmetric renders "value +errHigh -errLow"; the smaller error sets the precision
func FormatAsymmetric(value, errLow, errHigh float64, sig int) string {
	if !usable(errLow) || !usable(errHigh) {
		return fmt.Sprintf("%g +%g -%g", value, errHigh, errLow)
	}
	d := Decimals(math.Min(errLow, errHigh), sig)
	return formatAt(value, d) + " +" + formatAt(errHigh, d) + " -" + formatAt(errLow, d)
}

// FormatEstimate picks the symmetric form when both errors round to the same text
func FormatEstimate(e stats.Estimate, sig int) string {
	if e.IsSymmetric() {
		return FormatValue(e.Value, e.ErrHigh, sig)
	}
	if usable(e.ErrLow) && usable(e.ErrHigh) {
		d := Decimals(math.Min(e.ErrLow, e.ErrHigh), sig)
		if formatAt(e.ErrLow, d) == formatAt(e.ErrHigh, d) {
			return FormatValue(e.Value, e.ErrHigh, sig)
		}
	}
	return FormatAsymmetric(e.Value, e.ErrLow, e.ErrHigh, sig)
}
