package synth

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults checks that every redirect is consistent with the good/bad
// rule. Only rounded scores are visible, so scores that round to the
// threshold itself are not judged.
func verifyResults(ctx context.Context, config *Config, observations []Observation, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(observations) == 0 {
		return fmt.Errorf("no results to verify")
	}

	inconsistent := 0
	for _, obs := range observations {
		if !consistent(obs) {
			inconsistent++
			if config.Verbose {
				log.Printf("⚠️  score %d redirected with result_class %q", obs.Score, obs.ResultClass)
			}
		}
	}
	stats.InconsistentResults = inconsistent

	displayRiskDistribution(observations, config.Verbose)

	if inconsistent > 0 {
		return fmt.Errorf("%d of %d results disagree with the score threshold", inconsistent, len(observations))
	}
	log.Println("✅ Result verification completed")
	return nil
}

func consistent(obs Observation) bool {
	switch {
	case obs.Score > ResultThreshold:
		return obs.ResultClass == "good"
	case obs.Score < ResultThreshold:
		return obs.ResultClass == "bad"
	default:
		return obs.ResultClass == "good" || obs.ResultClass == "bad"
	}
}

// displayRiskDistribution shows how results spread over risk labels.
func displayRiskDistribution(observations []Observation, verbose bool) {
	counts := make(map[string]int)
	for _, obs := range observations {
		counts[obs.Risk]++
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	log.Printf("🩺 Risk distribution over %d results:", len(observations))
	for _, l := range labels {
		log.Printf("   %s: %d", l, counts[l])
	}

	if verbose {
		log.Printf(`📊 Score statistics:
   Average: %.2f
`, calculateAverageScore(observations))
	}
}

// calculateAverageScore calculates the average rounded score.
func calculateAverageScore(observations []Observation) float64 {
	if len(observations) == 0 {
		return 0
	}
	sum := 0
	for _, obs := range observations {
		sum += obs.Score
	}
	return float64(sum) / float64(len(observations))
}
