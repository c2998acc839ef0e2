// Package risk scores ten-year and lifetime cardiovascular risk.
// It selects between a youth lifetime heuristic, the Framingham points system
// and the ASCVD pooled cohort equations based on the patient's age.
package risk

import "errors"

// ErrValidation is returned when an Input fails validation.
var ErrValidation = errors.New("invalid risk input")

// Gender of the patient.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Unit of a cholesterol measurement.
type Unit string

const (
	UnitMgDL  Unit = "mg/dL"
	UnitMmolL Unit = "mmol/L"
)

const mgPerMmolL = 38.67

// Algorithm identifies the scoring model that produced a Result.
type Algorithm string

const (
	AlgorithmYouthLifetime Algorithm = "youth_lifetime"
	AlgorithmASCVD         Algorithm = "ascvd"
	AlgorithmFramingham    Algorithm = "framingham"
)

// Level is the categorical risk band.
type Level string

const (
	LevelLow          Level = "low"
	LevelBorderline   Level = "borderline"
	LevelModerate     Level = "moderate"
	LevelHigh         Level = "high"
	LevelHighLifetime Level = "high_lifetime"
	LevelLowLifetime  Level = "low_lifetime"
)

// Factor is a reported contributing risk factor.
type Factor string

const (
	FactorSmoker              Factor = "smoker"
	FactorDiabetic            Factor = "diabetic"
	FactorTreatedHypertension Factor = "treated_hypertension"
	FactorHighSystolicBP      Factor = "high_systolic_bp"
	FactorHighCholesterol     Factor = "high_cholesterol"
	FactorObesity             Factor = "obesity"
)

// Input holds the patient measurements for one assessment.
// Cholesterol units default to mg/dL when empty.
type Input struct {
	Age                   int     `json:"age"                    validate:"gte=0,lte=120"`
	Gender                Gender  `json:"gender"                 validate:"required,oneof=male female"`
	IsSmoker              bool    `json:"is_smoker"`
	IsDiabetic            bool    `json:"is_diabetic"`
	IsTreatedHypertension bool    `json:"is_treated_hypertension"`
	SystolicBP            int     `json:"systolic_bp"            validate:"gt=0,lte=300"`
	TotalCholesterol      float64 `json:"total_cholesterol"      validate:"gt=0"`
	TotalCholesterolUnit  Unit    `json:"total_cholesterol_unit" validate:"omitempty,oneof=mg/dL mmol/L"`
	HDLCholesterol        float64 `json:"hdl_cholesterol"        validate:"gt=0"`
	HDLCholesterolUnit    Unit    `json:"hdl_cholesterol_unit"   validate:"omitempty,oneof=mg/dL mmol/L"`

	// Only the youth branch scores BMI; every branch reports it as a factor.
	WeightKg *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0,lte=500"`
	HeightCm *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0,lte=300"`
}

// Result is the outcome of an assessment. It is never mutated after creation.
type Result struct {
	// RiskScore is algorithm specific: Framingham points, the ASCVD
	// coefficient sum, or the youth risk-factor count.
	RiskScore      float64   `json:"risk_score"`
	RiskPercentage float64   `json:"risk_percentage"`
	IsHighRisk     bool      `json:"is_high_risk"`
	RiskLevel      Level     `json:"risk_level"`
	AlgorithmUsed  Algorithm `json:"algorithm_used"`
	RiskFactors    []Factor  `json:"risk_factors"`
}

// HasFactor reports whether f was tagged on the result.
func (r Result) HasFactor(f Factor) bool {
	for _, got := range r.RiskFactors {
		if got == f {
			return true
		}
	}
	return false
}
