package risk

// youthLifetime counts lifetime risk factors for patients under 20.
func youthLifetime(in Input) Result {
	count := 0
	if in.TotalCholesterol > 200 {
		count++
	}
	if in.SystolicBP > 130 {
		count++
	}
	if in.IsSmoker {
		count += 2
	}
	if v, ok := bmi(in); ok && v > obesityBMIExceeded {
		count++
	}

	var percent float64
	switch {
	case count == 0:
		percent = 5
	case count == 1:
		percent = 20
	case count == 2:
		percent = 39
	case in.IsSmoker:
		percent = 65
	default:
		percent = 50
	}

	level := LevelLowLifetime
	if count >= 2 {
		level = LevelHighLifetime
	}

	return Result{
		RiskScore:      float64(count),
		RiskPercentage: percent,
		IsHighRisk:     percent > 30,
		RiskLevel:      level,
		AlgorithmUsed:  AlgorithmYouthLifetime,
	}
}
