package datasets

import (
	"fmt"

	"gofit/domain/stats"
)

// Coffee machine counter readings: cumulative cups brewed, read on the given
// day since the first reading.
var (
	CoffeeDays = []float64{0, 9, 14, 21, 23, 36, 65, 76, 86, 99, 194, 280, 309}
	CoffeeCups = []float64{28479, 28634, 28724, 28850, 28883, 29099, 29613, 29805, 29981, 30216, 31839, 33347, 34008}
)

const (
	// DefaultCoffeeSigma is the reading uncertainty in cups
	DefaultCoffeeSigma = 2.0

	// CoffeeWindowLow and CoffeeWindowHigh bound the steady-usage period (exclusive)
	CoffeeWindowLow  = 60.0
	CoffeeWindowHigh = 105.0
)

// CoffeeObservations returns the full fixture with a constant reading uncertainty
func CoffeeObservations(sigma float64) (stats.ObservationSet, error) {
	if len(CoffeeDays) != len(CoffeeCups) {
		return stats.ObservationSet{}, fmt.Errorf("coffee fixture: %d days vs %d readings", len(CoffeeDays), len(CoffeeCups))
	}
	obs := make([]stats.Observation, len(CoffeeDays))
	for i := range CoffeeDays {
		obs[i] = stats.Observation{X: CoffeeDays[i], Y: CoffeeCups[i], SigmaY: sigma}
	}
	return stats.NewObservationSet(obs)
}

// InWindow keeps observations with low < x < high
func InWindow(set stats.ObservationSet, low, high float64) stats.ObservationSet {
	return set.Filter(func(o stats.Observation) bool { return o.X > low && o.X < high })
}
