package synth

import "time"

// Config holds configuration for a load run against the web form.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumRequests int           // Number of form submissions
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Seed for generated answers
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Observation is what one successful submission redirected to.
type Observation struct {
	Score       int
	Risk        string
	ResultClass string
}

// Stats holds load run statistics.
type Stats struct {
	InputsGenerated     int
	RequestsSubmitted   int
	RequestsSuccessful  int
	RequestsRejected    int
	RequestsFailed      int
	ReportsDownloaded   int
	InconsistentResults int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
