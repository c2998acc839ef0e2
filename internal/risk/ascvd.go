package risk

import "math"

// pooledCohort holds one gender's pooled cohort equation coefficients.
type pooledCohort struct {
	lnAge             float64
	lnAgeSquared      float64
	lnTotalChol       float64
	lnAgeTotalChol    float64
	lnHDL             float64
	lnAgeHDL          float64
	lnTreatedSBP      float64
	lnAgeTreatedSBP   float64
	lnUntreatedSBP    float64
	lnAgeUntreatedSBP float64
	smoker            float64
	lnAgeSmoker       float64
	diabetes          float64

	baselineSurvival float64
	meanSum          float64
}

// Published 2013 ACC/AHA white-cohort coefficients.
var (
	// pooledCohortMale follows the published white-male equation. It carries
	// an ln(age) x smoker term and no ln(age) x SBP terms, unlike a table that
	// lists age interactions for blood pressure. Sex-mixed coefficient sets
	// are not used.
	pooledCohortMale = pooledCohort{
		lnAge:            12.344,
		lnTotalChol:      11.853,
		lnAgeTotalChol:   -2.664,
		lnHDL:            -7.990,
		lnAgeHDL:         1.769,
		lnTreatedSBP:     1.797,
		lnUntreatedSBP:   1.764,
		smoker:           7.837,
		lnAgeSmoker:      -1.795,
		diabetes:         0.658,
		baselineSurvival: 0.9144,
		meanSum:          61.18,
	}
	pooledCohortFemale = pooledCohort{
		lnAge:            -29.799,
		lnAgeSquared:     4.884,
		lnTotalChol:      13.540,
		lnAgeTotalChol:   -3.114,
		lnHDL:            -13.578,
		lnAgeHDL:         3.149,
		lnTreatedSBP:     2.019,
		lnUntreatedSBP:   1.957,
		smoker:           7.574,
		lnAgeSmoker:      -1.665,
		diabetes:         0.661,
		baselineSurvival: 0.9665,
		meanSum:          -29.18,
	}
)

// sum evaluates the linear predictor for in.
func (c pooledCohort) sum(in Input) float64 {
	lnAge := math.Log(float64(in.Age))
	lnTC := math.Log(in.TotalCholesterol)
	lnHDL := math.Log(in.HDLCholesterol)
	lnSBP := math.Log(float64(in.SystolicBP))

	s := c.lnAge*lnAge +
		c.lnAgeSquared*lnAge*lnAge +
		c.lnTotalChol*lnTC +
		c.lnAgeTotalChol*lnAge*lnTC +
		c.lnHDL*lnHDL +
		c.lnAgeHDL*lnAge*lnHDL

	if in.IsTreatedHypertension {
		s += c.lnTreatedSBP*lnSBP + c.lnAgeTreatedSBP*lnAge*lnSBP
	} else {
		s += c.lnUntreatedSBP*lnSBP + c.lnAgeUntreatedSBP*lnAge*lnSBP
	}
	if in.IsSmoker {
		s += c.smoker + c.lnAgeSmoker*lnAge
	}
	if in.IsDiabetic {
		s += c.diabetes
	}
	return s
}

func ascvd(in Input) Result {
	c := pooledCohortMale
	if in.Gender == GenderFemale {
		c = pooledCohortFemale
	}

	sum := c.sum(in)
	risk := 1 - math.Pow(c.baselineSurvival, math.Exp(sum-c.meanSum))
	percent := math.Round(risk*100*100) / 100
	percent = math.Max(0, math.Min(100, percent))

	return Result{
		RiskScore:      sum,
		RiskPercentage: percent,
		IsHighRisk:     percent >= 7.5,
		RiskLevel:      ascvdLevel(percent),
		AlgorithmUsed:  AlgorithmASCVD,
	}
}

func ascvdLevel(percent float64) Level {
	switch {
	case percent < 5:
		return LevelLow
	case percent < 7.5:
		return LevelBorderline
	case percent < 20:
		return LevelModerate
	default:
		return LevelHigh
	}
}
