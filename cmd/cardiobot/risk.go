package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/cardiobot/internal/risk"
)

func riskCmd() *cobra.Command {
	var (
		in             risk.Input
		gender, unit   string
		weight, height float64
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Print a cardiovascular risk assessment as JSON",
		Example: "  cardiobot risk --age 55 --gender male --sbp 140 --chol 220 --hdl 45 --smoker\n" +
			"  cardiobot risk --age 16 --gender female --sbp 110 --chol 4.1 --hdl 1.4 --unit mmol/L --weight 60 --height 165",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Gender = risk.Gender(strings.ToLower(gender))
			in.TotalCholesterolUnit = risk.Unit(unit)
			in.HDLCholesterolUnit = risk.Unit(unit)
			if cmd.Flags().Changed("weight") {
				in.WeightKg = &weight
			}
			if cmd.Flags().Changed("height") {
				in.HeightCm = &height
			}

			result, err := risk.NewEngine().CalculateRisk(in)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&in.Age, "age", 0, "Age in years")
	f.StringVar(&gender, "gender", "", "male or female")
	f.IntVar(&in.SystolicBP, "sbp", 0, "Systolic blood pressure (mmHg)")
	f.Float64Var(&in.TotalCholesterol, "chol", 0, "Total cholesterol")
	f.Float64Var(&in.HDLCholesterol, "hdl", 0, "HDL cholesterol")
	f.StringVar(&unit, "unit", string(risk.UnitMgDL), "Cholesterol unit: mg/dL or mmol/L")
	f.BoolVar(&in.IsSmoker, "smoker", false, "Current smoker")
	f.BoolVar(&in.IsDiabetic, "diabetic", false, "Diagnosed diabetes")
	f.BoolVar(&in.IsTreatedHypertension, "treated", false, "On blood pressure medication")
	f.Float64Var(&weight, "weight", 0, "Weight in kg")
	f.Float64Var(&height, "height", 0, "Height in cm")
	for _, name := range []string{"age", "gender", "sbp", "chol", "hdl"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
