package api

import (
	"errors"
	"fmt"
	"html"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/okian/hairhealth/internal/adapters/http/site"
	"github.com/okian/hairhealth/internal/adapters/repository"
	service "github.com/okian/hairhealth/internal/app"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/internal/domain/scoring"
	"github.com/okian/hairhealth/pkg/logger"
	"github.com/okian/hairhealth/pkg/metrics"
)

// Messages shown to users as plain text.
const (
	msgNoResult     = "No result data to generate PDF."
	msgReportFailed = "Error generating PDF"
	msgPageFailed   = "Error rendering page"
	errorPrefix     = "Error: "
)

// Form field names posted by the questionnaire.
const (
	fieldStress    = "stress"
	fieldSleep     = "sleep"
	fieldWater     = "water"
	fieldPollution = "pollution"
	fieldColoring  = "coloring"
	fieldIssues    = "issues"
	fieldBudget    = "budget"
	fieldGenetics  = "genetics"
)

// handleForm handles GET / and renders the questionnaire.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Form(w, site.FormDataFrom(s.predictor.Vocabulary())); err != nil {
		s.logger.Error(r.Context(), "render form", logger.Error(err))
		writeText(w, http.StatusInternalServerError, msgPageFailed)
	}
}

// handlePredict handles POST /predict. It scores the answers, keeps the
// result for the session and redirects to the result page.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, errorPrefix+WrapKind("predict.parse", ErrBadRequest, err).Error())
		return
	}
	in, err := parseInput(r.PostForm)
	if err != nil {
		writeText(w, http.StatusBadRequest, errorPrefix+err.Error())
		return
	}

	res, err := s.predictor.Predict(ctx, in)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeText(w, status, errorPrefix+err.Error())
		return
	}

	id, err := s.cookie.ensure(w, r)
	if err != nil {
		s.logger.Error(ctx, "issue session cookie", logger.Error(err))
		writeText(w, http.StatusInternalServerError, errorPrefix+err.Error())
		return
	}
	stored := repository.SessionResult{
		Tips:        res.Tips,
		Score:       res.Score,
		Risk:        res.Risk,
		ResultClass: string(res.ResultClass),
		CreatedAt:   s.now(),
	}
	if err := s.sessions.Put(ctx, id, stored); err != nil {
		err = WrapKind("predict.store", ErrSession, err)
		s.logger.Error(ctx, "store session result", logger.Error(err))
		writeText(w, http.StatusInternalServerError, errorPrefix+err.Error())
		return
	}

	q := url.Values{}
	q.Set("score", strconv.Itoa(res.Score))
	q.Set("risk", res.Risk)
	q.Set("result_class", string(res.ResultClass))
	http.Redirect(w, r, "/result?"+q.Encode(), http.StatusSeeOther)
}

// plainText strips markup from v. The sanitizer escapes entities in what it
// keeps, so they are decoded here and left for the template to escape once.
func (s *Server) plainText(v string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(v))
}

// handleResult handles GET /result. Score and risk are echoed from the
// query string; tips come from the session.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := site.ResultData{
		Score: s.plainText(q.Get("score")),
		Risk:  s.plainText(q.Get("risk")),
	}
	if class := scoring.Bucket(q.Get("result_class")); class.Valid() {
		data.ResultClass = string(class)
	}
	if res, err := s.sessionResult(r); err == nil {
		data.Tips = res.Tips
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Result(w, data); err != nil {
		s.logger.Error(r.Context(), "render result", logger.Error(err))
		writeText(w, http.StatusInternalServerError, msgPageFailed)
	}
}

// handleDownload handles GET /download-pdf and returns the session's result
// as a document attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := s.sessionResult(r)
	if errors.Is(err, ErrMissingSessionResult) {
		writeText(w, http.StatusOK, msgNoResult)
		return
	}
	if err != nil {
		s.logger.Error(ctx, "load session result", logger.Error(err))
		writeText(w, http.StatusInternalServerError, msgReportFailed)
		return
	}

	page, err := s.pages.Report(site.ReportData{
		Score:       res.Score,
		Risk:        res.Risk,
		Tips:        res.Tips,
		GeneratedAt: s.now(),
	})
	if err == nil {
		page, err = s.reports.Render(ctx, page)
	}
	if err != nil {
		s.logger.Error(ctx, "generate report", logger.Error(WrapKind("download", ErrReport, err)))
		writeText(w, http.StatusInternalServerError, msgReportFailed)
		return
	}

	w.Header().Set("Content-Type", s.reports.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.reportName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
	metrics.RecordReportGenerated(strings.TrimPrefix(path.Ext(s.reportName), "."))
}

// sessionResult returns the stored result of the requesting session or
// ErrMissingSessionResult when there is none.
func (s *Server) sessionResult(r *http.Request) (repository.SessionResult, error) {
	id, ok := s.cookie.id(r)
	if !ok {
		return repository.SessionResult{}, NewKind("session", ErrMissingSessionResult)
	}
	res, err := s.sessions.Get(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrExpired):
		return repository.SessionResult{}, WrapKind("session", ErrMissingSessionResult, err)
	case err != nil:
		return repository.SessionResult{}, WrapKind("session", ErrSession, err)
	}
	return res, nil
}

// parseInput reads the questionnaire fields. Numeric answers must parse;
// everything else is validated by the service.
func parseInput(form url.Values) (model.Input, error) {
	sleep, err := parseAmount(form, fieldSleep)
	if err != nil {
		return model.Input{}, err
	}
	water, err := parseAmount(form, fieldWater)
	if err != nil {
		return model.Input{}, err
	}
	return model.Input{
		Stress:    strings.TrimSpace(form.Get(fieldStress)),
		Sleep:     sleep,
		Water:     water,
		Pollution: strings.TrimSpace(form.Get(fieldPollution)),
		Coloring:  strings.TrimSpace(form.Get(fieldColoring)),
		Issues:    form[fieldIssues],
		Budget:    strings.TrimSpace(form.Get(fieldBudget)),
		Genetics:  strings.TrimSpace(form.Get(fieldGenetics)),
	}, nil
}

func parseAmount(form url.Values, field string) (float64, error) {
	raw := strings.TrimSpace(form.Get(field))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", model.ErrInvalidInput, field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", model.ErrInvalidInput, field, raw)
	}
	return v, nil
}
