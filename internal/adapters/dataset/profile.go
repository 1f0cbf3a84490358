package dataset

import (
	"github.com/montanaflynn/stats"

	"github.com/okian/hairhealth/internal/domain/model"
)

// Summary describes the distribution of one numeric column.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// DatasetProfile is a quick look at a dataset before training.
type DatasetProfile struct {
	Rows        int            `json:"rows"`
	Score       Summary        `json:"score"`
	Sleep       Summary        `json:"sleep"`
	Water       Summary        `json:"water"`
	RiskCounts  map[string]int `json:"risk_counts"`
	IssueCounts map[string]int `json:"issue_counts"`
}

// Profile summarises records.
func Profile(records []model.Record) (DatasetProfile, error) {
	p := DatasetProfile{
		Rows:        len(records),
		RiskCounts:  make(map[string]int),
		IssueCounts: make(map[string]int),
	}
	if len(records) == 0 {
		return p, ErrNoRows
	}

	scores := make([]float64, len(records))
	sleep := make([]float64, len(records))
	water := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.Score
		sleep[i] = r.Sleep
		water[i] = r.Water
		p.RiskCounts[r.Risk]++
		for _, is := range r.Issues {
			p.IssueCounts[is]++
		}
	}

	var err error
	if p.Score, err = summarize(scores); err != nil {
		return p, err
	}
	if p.Sleep, err = summarize(sleep); err != nil {
		return p, err
	}
	if p.Water, err = summarize(water); err != nil {
		return p, err
	}
	return p, nil
}

func summarize(data stats.Float64Data) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Min, err = data.Min(); err != nil {
		return s, err
	}
	if s.Max, err = data.Max(); err != nil {
		return s, err
	}
	if s.Mean, err = data.Mean(); err != nil {
		return s, err
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return s, err
	}
	if s.Median, err = data.Median(); err != nil {
		return s, err
	}
	if s.P25, err = data.Percentile(25); err != nil {
		return s, err
	}
	if s.P75, err = data.Percentile(75); err != nil {
		return s, err
	}
	return s, nil
}
