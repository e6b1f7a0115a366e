package hll

import (
	"errors"
	"fmt"
	"math"
)

// Estimator names accepted by EstimatorByName.
const (
	EstimatorLinear     = "linear"
	EstimatorLogLogBeta = "loglog-beta"
)

const (
	// Alpha constants for small register counts.
	alphaM16 = 0.673
	alphaM32 = 0.697
	alphaM64 = 0.709

	registersM16 = 16
	registersM32 = 32
	registersM64 = 64

	// alphaGenericNumerator is the numerator in the generic alpha formula.
	alphaGenericNumerator = 0.7213

	// alphaGenericDenominatorCoeff is the coefficient in the generic alpha denominator.
	alphaGenericDenominatorCoeff = 1.079

	// LogLog-Beta polynomial coefficients from Qin et al. (2016).
	betaC0 = -0.370393911
	betaC1 = 0.070471823
	betaC2 = 0.17393686
	betaC3 = 0.16339839
	betaC4 = -0.09237745
	betaC5 = 0.03738027
	betaC6 = -0.005384159
	betaC7 = 0.00042419
)

// ErrUnknownEstimator is returned by EstimatorByName for an unrecognised name.
var ErrUnknownEstimator = errors.New("hll: unknown estimator")

// Estimator turns a register array into a cardinality estimate.
// Implementations must not modify registers.
type Estimator interface {
	Estimate(registers []uint8) float64
}

// LinearCounting estimates m * ln(m / V), where V is the number of empty
// registers. When no register is empty it returns 0; callers needing
// estimates beyond saturation should use LogLogBeta or a higher precision.
type LinearCounting struct{}

// Estimate implements Estimator.
func (LinearCounting) Estimate(registers []uint8) float64 {
	zeros := countZeroRegisters(registers)
	if zeros == 0 {
		return 0
	}

	regCount := float64(len(registers))

	return regCount * math.Log(regCount/float64(zeros))
}

// LogLogBeta is the harmonic-mean HyperLogLog estimator with the LogLog-Beta
// bias correction, alpha * m * (m - V) / (beta(V) + sum 2^-M[j]).
type LogLogBeta struct{}

// Estimate implements Estimator.
func (LogLogBeta) Estimate(registers []uint8) float64 {
	regCount := float64(len(registers))
	zeros := float64(countZeroRegisters(registers))

	if zeros == regCount {
		return 0
	}

	harmonicSum := computeHarmonicSum(registers)

	return alpha(len(registers)) * regCount * (regCount - zeros) / (betaCorrection(zeros) + harmonicSum)
}

// EstimatorByName resolves one of EstimatorLinear or EstimatorLogLogBeta.
// The empty name selects the default.
func EstimatorByName(name string) (Estimator, error) {
	switch name {
	case "", EstimatorLinear:
		return LinearCounting{}, nil
	case EstimatorLogLogBeta:
		return LogLogBeta{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEstimator, name)
	}
}

// countZeroRegisters counts registers that are still at zero.
func countZeroRegisters(registers []uint8) int {
	count := 0

	for _, val := range registers {
		if val == 0 {
			count++
		}
	}

	return count
}

// computeHarmonicSum computes the sum of 2^(-M[j]) for all registers.
func computeHarmonicSum(registers []uint8) float64 {
	sum := 0.0

	for _, val := range registers {
		sum += math.Exp2(-float64(val))
	}

	return sum
}

// alpha returns the alpha_m constant for m registers.
// Register counts below 16 reuse the m=16 constant.
func alpha(regCount int) float64 {
	switch {
	case regCount <= registersM16:
		return alphaM16
	case regCount == registersM32:
		return alphaM32
	case regCount == registersM64:
		return alphaM64
	default:
		return alphaGenericNumerator / (1 + alphaGenericDenominatorCoeff/float64(regCount))
	}
}

// betaCorrection evaluates the LogLog-Beta polynomial for zeroCount empty registers.
func betaCorrection(zeroCount float64) float64 {
	zl := math.Log(zeroCount + 1)
	zl2 := zl * zl
	zl3 := zl2 * zl
	zl4 := zl3 * zl
	zl5 := zl4 * zl
	zl6 := zl5 * zl
	zl7 := zl6 * zl

	return betaC0*zeroCount +
		betaC1*zl +
		betaC2*zl2 +
		betaC3*zl3 +
		betaC4*zl4 +
		betaC5*zl5 +
		betaC6*zl6 +
		betaC7*zl7
}
