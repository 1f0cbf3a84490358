package synth

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hairhealth/internal/domain/model"
)

// HTTPClient wraps http.Client with a timeout. Redirects are not followed so
// the result parameters of /predict can be inspected.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with its own cookie jar.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// PostForm performs a POST request with a url-encoded body.
func (c *HTTPClient) PostForm(ctx context.Context, target string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.client.Do(req)
}

// FormValues encodes in the way the web form submits it.
func FormValues(in model.Input) url.Values {
	form := url.Values{
		"stress":    {in.Stress},
		"sleep":     {strconv.FormatFloat(in.Sleep, 'f', -1, 64)},
		"water":     {strconv.FormatFloat(in.Water, 'f', -1, 64)},
		"pollution": {in.Pollution},
		"coloring":  {in.Coloring},
		"budget":    {in.Budget},
		"genetics":  {in.Genetics},
	}
	for _, is := range in.Issues {
		form.Add("issues", is)
	}
	return form
}

// submitForms posts inputs concurrently and collects the redirect targets.
func submitForms(ctx context.Context, config *Config, inputs []model.Input, stats *Stats) ([]Observation, error) {
	log.Printf("📤 Submitting %d forms with %d workers...", len(inputs), config.Workers)

	target := config.BaseURL + "/predict"

	var (
		successful int64
		rejected   int64
		failed     int64
		submitted  int64

		mu           sync.Mutex
		observations = make([]Observation, 0, len(inputs))
	)

	inputChan := make(chan model.Input, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := newHTTPClient(config.Timeout)

			for in := range inputChan {
				obs, outcome := submitSingleForm(ctx, client, target, in)
				atomic.AddInt64(&submitted, 1)
				switch outcome {
				case outcomeSuccess:
					atomic.AddInt64(&successful, 1)
					mu.Lock()
					observations = append(observations, obs)
					mu.Unlock()
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose {
					log.Printf("📊 Progress: %d/%d submitted", atomic.LoadInt64(&submitted), len(inputs))
				}
			}
		}()
	}

	go func() {
		defer close(inputChan)
		for _, in := range inputs {
			select {
			case <-ctx.Done():
				return
			case inputChan <- in:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RequestsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RequestsRejected = int(atomic.LoadInt64(&rejected))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))

	if err := ctx.Err(); err != nil {
		return observations, err
	}
	return observations, nil
}

// submitSingleForm posts one form and parses the redirect location.
func submitSingleForm(ctx context.Context, client *HTTPClient, target string, in model.Input) (Observation, string) {
	resp, err := client.PostForm(ctx, target, FormValues(in))
	if err != nil {
		return Observation{}, outcomeFailed
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case StatusSeeOther:
		obs, err := parseResultLocation(resp.Header.Get("Location"))
		if err != nil {
			return Observation{}, outcomeFailed
		}
		return obs, outcomeSuccess
	case StatusBadRequest:
		return Observation{}, outcomeRejected
	default:
		return Observation{}, outcomeFailed
	}
}

// parseResultLocation reads score, risk and result_class from a /result URL.
func parseResultLocation(location string) (Observation, error) {
	u, err := url.Parse(location)
	if err != nil {
		return Observation{}, fmt.Errorf("bad location %q: %w", location, err)
	}
	if u.Path != "/result" {
		return Observation{}, fmt.Errorf("unexpected redirect to %q", u.Path)
	}
	q := u.Query()
	score, err := strconv.Atoi(q.Get("score"))
	if err != nil {
		return Observation{}, fmt.Errorf("bad score in %q: %w", location, err)
	}
	return Observation{Score: score, Risk: q.Get("risk"), ResultClass: q.Get("result_class")}, nil
}

// downloadReport submits one form and fetches the PDF for that session.
func downloadReport(ctx context.Context, config *Config, in model.Input) error {
	client := newHTTPClient(config.Timeout)
	if _, outcome := submitSingleForm(ctx, client, config.BaseURL+"/predict", in); outcome != outcomeSuccess {
		return fmt.Errorf("form submission %s", outcome)
	}
	resp, err := client.Get(ctx, config.BaseURL+"/download-pdf")
	if err != nil {
		return fmt.Errorf("failed to fetch report: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if resp.StatusCode != StatusOK || !strings.HasPrefix(string(body), "%PDF-") {
		return fmt.Errorf("unexpected report response: status %d, %d bytes", resp.StatusCode, len(body))
	}
	return nil
}
