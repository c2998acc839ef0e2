package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cardiobot/internal/risk"
)

// ErrRiskUsage is returned by ParseRiskArgs for malformed command arguments.
var ErrRiskUsage = errors.New("invalid /risk arguments")

// NewRiskHandler returns a handler for /risk key=value ... assessments.
func NewRiskHandler(deps HandlerDeps) bot.HandlerFunc {
	return riskHandler{deps}.Handle
}

type riskHandler struct {
	deps HandlerDeps
}

func (h riskHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "risk")
	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Risk handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	in, err := ParseRiskArgs(commandArgs(update.Message.Text))
	if err != nil {
		log.InfoContext(ctx, "Rejected /risk arguments", "error", err, "chat_id", chatID)
		send(ctx, b, log, chatID, err.Error()+"\n\n"+msgs.RiskUsage)
		return
	}

	result, err := h.deps.Risk.CalculateRisk(in)
	if err != nil {
		log.InfoContext(ctx, "Risk input failed validation", "error", err, "chat_id", chatID)
		send(ctx, b, log, chatID, fmt.Sprintf(msgs.RiskInvalid, err))
		return
	}

	log.InfoContext(ctx, "Risk assessed",
		"chat_id", chatID,
		"algorithm", result.AlgorithmUsed,
		"level", result.RiskLevel,
	)
	send(ctx, b, log, chatID, FormatRiskResult(result))
}

// ParseRiskArgs reads space separated key=value pairs into a risk.Input.
// age, gender, sbp, chol and hdl are required. unit applies to both
// cholesterol values.
func ParseRiskArgs(args string) (risk.Input, error) {
	var in risk.Input
	seen := make(map[string]bool)

	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" || value == "" {
			return risk.Input{}, fmt.Errorf("%w: expected key=value, got %q", ErrRiskUsage, field)
		}
		if seen[key] {
			return risk.Input{}, fmt.Errorf("%w: %s given twice", ErrRiskUsage, key)
		}
		seen[key] = true

		if err := setRiskField(&in, key, value); err != nil {
			return risk.Input{}, err
		}
	}

	for _, required := range []string{"age", "gender", "sbp", "chol", "hdl"} {
		if !seen[required] {
			return risk.Input{}, fmt.Errorf("%w: %s is required", ErrRiskUsage, required)
		}
	}
	return in, nil
}

func setRiskField(in *risk.Input, key, value string) error {
	var err error
	switch key {
	case "age":
		in.Age, err = strconv.Atoi(value)
	case "gender", "sex":
		in.Gender, err = parseGender(value)
	case "sbp", "bp":
		in.SystolicBP, err = strconv.Atoi(value)
	case "chol", "cholesterol":
		in.TotalCholesterol, err = strconv.ParseFloat(value, 64)
	case "hdl":
		in.HDLCholesterol, err = strconv.ParseFloat(value, 64)
	case "unit":
		var u risk.Unit
		u, err = parseUnit(value)
		in.TotalCholesterolUnit, in.HDLCholesterolUnit = u, u
	case "smoker":
		in.IsSmoker, err = parseYesNo(value)
	case "diabetic":
		in.IsDiabetic, err = parseYesNo(value)
	case "treated":
		in.IsTreatedHypertension, err = parseYesNo(value)
	case "weight":
		in.WeightKg, err = parseOptionalFloat(value)
	case "height":
		in.HeightCm, err = parseOptionalFloat(value)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrRiskUsage, key)
	}
	if err != nil {
		return fmt.Errorf("%w: bad %s %q", ErrRiskUsage, key, value)
	}
	return nil
}

func parseGender(v string) (risk.Gender, error) {
	switch strings.ToLower(v) {
	case "male", "m":
		return risk.GenderMale, nil
	case "female", "f":
		return risk.GenderFemale, nil
	}
	return "", fmt.Errorf("unknown gender %q", v)
}

func parseUnit(v string) (risk.Unit, error) {
	switch strings.ToLower(v) {
	case "mg/dl", "mg":
		return risk.UnitMgDL, nil
	case "mmol/l", "mmol":
		return risk.UnitMmolL, nil
	}
	return "", fmt.Errorf("unknown unit %q", v)
}

func parseYesNo(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected yes or no, got %q", v)
}

func parseOptionalFloat(v string) (*float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

var algorithmNames = map[risk.Algorithm]string{
	risk.AlgorithmYouthLifetime: "Youth lifetime estimate",
	risk.AlgorithmFramingham:    "Framingham points",
	risk.AlgorithmASCVD:         "ASCVD pooled cohort equations",
}

// FormatRiskResult renders a result as a chat message.
func FormatRiskResult(r risk.Result) string {
	var sb strings.Builder
	sb.WriteString("🫀 Cardiovascular risk assessment\n\n")
	fmt.Fprintf(&sb, "Model: %s\n", algorithmNames[r.AlgorithmUsed])

	horizon := "10-year"
	if r.AlgorithmUsed == risk.AlgorithmYouthLifetime {
		horizon = "Lifetime"
	}
	fmt.Fprintf(&sb, "%s risk: %.1f%%\n", horizon, r.RiskPercentage)
	fmt.Fprintf(&sb, "Level: %s\n", humanize(string(r.RiskLevel)))

	if len(r.RiskFactors) > 0 {
		factors := make([]string, 0, len(r.RiskFactors))
		for _, f := range r.RiskFactors {
			factors = append(factors, humanize(string(f)))
		}
		fmt.Fprintf(&sb, "Risk factors: %s\n", strings.Join(factors, ", "))
	} else {
		sb.WriteString("Risk factors: none reported\n")
	}

	if r.IsHighRisk {
		sb.WriteString("\n⚠️ This is a high-risk result. Please talk to your doctor.")
	}
	sb.WriteString("\nThis estimate does not replace a medical consultation.")
	return sb.String()
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
