package risk

const (
	highSystolicBP     = 140
	highCholesterol    = 240
	obesityBMIExceeded = 25
)

// riskFactors tags contributing factors independently of the score.
func riskFactors(in Input) []Factor {
	factors := make([]Factor, 0, 6)
	if in.IsSmoker {
		factors = append(factors, FactorSmoker)
	}
	if in.IsDiabetic {
		factors = append(factors, FactorDiabetic)
	}
	if in.IsTreatedHypertension {
		factors = append(factors, FactorTreatedHypertension)
	}
	if in.SystolicBP >= highSystolicBP {
		factors = append(factors, FactorHighSystolicBP)
	}
	if in.TotalCholesterol >= highCholesterol {
		factors = append(factors, FactorHighCholesterol)
	}
	if v, ok := bmi(in); ok && v > obesityBMIExceeded {
		factors = append(factors, FactorObesity)
	}
	return factors
}
