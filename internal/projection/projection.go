// Package projection produces heuristic forward price estimates from a
// historical price series.
package projection

import (
	"fmt"
	"math"

	"github.com/bobmcallan/stocklens/internal/models"
)

// InsufficientDataError reports a series too short for the chosen policy.
type InsufficientDataError struct {
	Points   int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d points, need at least %d", e.Points, e.Required)
}

// Result holds the horizon estimates produced by a policy. Accuracy is
// nil when the policy does not score its own fit.
type Result struct {
	Today    float64
	Days30   float64
	Days60   float64
	Days90   float64
	Accuracy *float64
}

// Policy turns a normalized price series into forward estimates.
type Policy interface {
	Name() string
	Project(series models.PriceSeries) (*Result, error)
}

// Multiplier scales applied to the last close for the fixed policy.
type Scale struct {
	Name   string
	Today  float64
	Days30 float64
	Days60 float64
	Days90 float64
}

var (
	StandardScale     = Scale{Name: "standard", Today: 1.02, Days30: 1.05, Days60: 1.10, Days90: 1.15}
	ConservativeScale = Scale{Name: "conservative", Today: 1.02, Days30: 1.02, Days60: 1.04, Days90: 1.06}
)

// ScaleForName resolves a configured scale name, defaulting to standard.
func ScaleForName(name string) Scale {
	if name == ConservativeScale.Name {
		return ConservativeScale
	}
	return StandardScale
}

// FixedMultiplier projects by multiplying the most recent close by a
// fixed per-horizon factor.
type FixedMultiplier struct {
	Scale Scale
}

func (p *FixedMultiplier) Name() string { return "fixed" }

func (p *FixedMultiplier) Project(series models.PriceSeries) (*Result, error) {
	if len(series) < 1 {
		return nil, &InsufficientDataError{Points: len(series), Required: 1}
	}
	last := series.Last().Close
	return &Result{
		Today:  last * p.Scale.Today,
		Days30: last * p.Scale.Days30,
		Days60: last * p.Scale.Days60,
		Days90: last * p.Scale.Days90,
	}, nil
}

// LinearFit projects by least-squares regression over the series index
// and extrapolating the fitted line forward.
type LinearFit struct{}

func (p *LinearFit) Name() string { return "linear" }

func (p *LinearFit) Project(series models.PriceSeries) (*Result, error) {
	if len(series) < 2 {
		return nil, &InsufficientDataError{Points: len(series), Required: 2}
	}

	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, pt := range series {
		x := float64(i)
		sumX += x
		sumY += pt.Close
		sumXY += x * pt.Close
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil, &InsufficientDataError{Points: len(series), Required: 2}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	at := func(x float64) float64 { return slope*x + intercept }
	lastIdx := n - 1

	// Accuracy is 100 minus the mean absolute percentage deviation of
	// the observed closes from the fitted line. Points with a zero
	// close are skipped to avoid dividing by zero.
	var devSum float64
	var devCount int
	for i, pt := range series {
		if pt.Close == 0 {
			continue
		}
		devSum += math.Abs(pt.Close-at(float64(i))) / pt.Close
		devCount++
	}
	accuracy := 100.0
	if devCount > 0 {
		accuracy = 100 - (devSum/float64(devCount))*100
	}

	return &Result{
		Today:    at(lastIdx),
		Days30:   at(lastIdx + 30),
		Days60:   at(lastIdx + 60),
		Days90:   at(lastIdx + 90),
		Accuracy: &accuracy,
	}, nil
}

// ForName builds the policy named in configuration. Unknown names fall
// back to the fixed policy with the given scale.
func ForName(policy, scale string) Policy {
	switch policy {
	case "linear":
		return &LinearFit{}
	default:
		return &FixedMultiplier{Scale: ScaleForName(scale)}
	}
}
