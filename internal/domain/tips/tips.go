// Package tips derives hair care advice from raw lifestyle answers.
package tips

import "github.com/okian/hairhealth/internal/domain/model"

// Advice strings, in rule declaration order.
const (
	StressTip    = "Try relaxation techniques like yoga or meditation to reduce stress."
	SleepTip     = "Aim for at least 7-8 hours of sleep to support hair health."
	HydrationTip = "Drink more water to keep your scalp hydrated."
	ProteinTip   = "Include more protein in your diet to reduce hair fall."
	DandruffTip  = "Use anti-dandruff shampoo with natural ingredients."
	DrynessTip   = "Apply oil regularly and use hydrating hair masks."
	OilyScalpTip = "Avoid over-washing; use mild, sulfate-free shampoos."
	FallbackTip  = "Your hair health seems good! Maintain your current routine."
)

// Rule thresholds.
const (
	HighStress     = "High"
	MinSleepHours  = 6.0
	MinWaterLiters = 2.0
)

// Generate applies every rule independently, in declaration order. The
// fallback is returned alone when no rule fires.
func Generate(stress string, sleep, water float64, issues []string) []string {
	has := make(map[string]bool, len(issues))
	for _, is := range issues {
		has[is] = true
	}

	var out []string
	if stress == HighStress {
		out = append(out, StressTip)
	}
	if sleep < MinSleepHours {
		out = append(out, SleepTip)
	}
	if water < MinWaterLiters {
		out = append(out, HydrationTip)
	}
	if has[model.IssueHairFall] {
		out = append(out, ProteinTip)
	}
	if has[model.IssueDandruff] {
		out = append(out, DandruffTip)
	}
	if has[model.IssueDryness] {
		out = append(out, DrynessTip)
	}
	if has[model.IssueOilyScalp] {
		out = append(out, OilyScalpTip)
	}
	if len(out) == 0 {
		out = append(out, FallbackTip)
	}
	return out
}

// ForInput is Generate over a model.Input.
func ForInput(in model.Input) []string {
	return Generate(in.Stress, in.Sleep, in.Water, in.Issues)
}
