package risk

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Engine computes risk assessments. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// CalculateRisk validates in, normalizes its cholesterol units and scores it
// with the algorithm for the patient's age band.
func (e *Engine) CalculateRisk(in Input) (Result, error) {
	if err := e.validate.Struct(in); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	in = Normalize(in)

	var res Result
	switch SelectAlgorithm(in.Age) {
	case AlgorithmYouthLifetime:
		res = youthLifetime(in)
	case AlgorithmASCVD:
		res = ascvd(in)
	default:
		res = framingham(in)
	}
	res.RiskFactors = riskFactors(in)
	return res, nil
}

// SelectAlgorithm maps an age to its scoring model. Ages 20-39 and anything
// above 79 use Framingham.
func SelectAlgorithm(age int) Algorithm {
	switch {
	case age < 20:
		return AlgorithmYouthLifetime
	case age >= 40 && age <= 79:
		return AlgorithmASCVD
	default:
		return AlgorithmFramingham
	}
}

// Normalize converts mmol/L cholesterol values to mg/dL, rounded to whole
// mg/dL so that a converted value lands in the same band as its usual
// mg/dL reading (5.17 mmol/L is 200 mg/dL, not 199.92).
func Normalize(in Input) Input {
	if in.TotalCholesterolUnit == UnitMmolL {
		in.TotalCholesterol = math.Round(in.TotalCholesterol * mgPerMmolL)
	}
	in.TotalCholesterolUnit = UnitMgDL

	if in.HDLCholesterolUnit == UnitMmolL {
		in.HDLCholesterol = math.Round(in.HDLCholesterol * mgPerMmolL)
	}
	in.HDLCholesterolUnit = UnitMgDL
	return in
}

// bmi returns the body mass index and whether both weight and height were given.
func bmi(in Input) (float64, bool) {
	if in.WeightKg == nil || in.HeightCm == nil || *in.HeightCm <= 0 {
		return 0, false
	}
	m := *in.HeightCm / 100
	return *in.WeightKg / (m * m), true
}
