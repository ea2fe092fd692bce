package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seenimoa/stockdesk/internal/analysis/fundamental"
	"github.com/seenimoa/stockdesk/internal/analysis/technical"
	"github.com/seenimoa/stockdesk/internal/news"
	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/internal/report"
	"github.com/seenimoa/stockdesk/internal/upstream"
)

// Validation messages returned with 400.
const (
	msgNewsTicker    = "Ticker is required!"
	msgTicker        = "Ticker symbol is required"
	msgChartParams   = "Missing required parameters: 'ticker' or 'time_frame'"
	healthStatusOK   = "ok"
	contentTypeHTML  = "text/html; charset=utf-8"
	retryAfterHeader = "Retry-After"
)

func tickerParam(r *http.Request) string {
	return fmp.NormalizeSymbol(r.URL.Query().Get("ticker"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": healthStatusOK})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, msgNewsTicker)
		return
	}

	articles, err := s.deps.News.StockNews(r.Context(), ticker)
	var noNews *news.ErrNoNews
	if errors.As(err, &noNews) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": noNews.Error()})
		return
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleDCF(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, msgTicker)
		return
	}

	res, err := fundamental.RunDCF(r.Context(), s.deps.Provider, ticker)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, msgTicker)
		return
	}

	rep, err := fundamental.Earnings(r.Context(), s.deps.Provider, ticker, s.deps.Now())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, msgTicker)
		return
	}

	q, err := s.deps.Provider.Quote(r.Context(), ticker)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	rawFrame := strings.TrimSpace(r.URL.Query().Get("time_frame"))
	if ticker == "" || rawFrame == "" {
		writeError(w, http.StatusBadRequest, msgChartParams)
		return
	}
	tf, err := technical.ParseTimeFrame(rawFrame)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.deps.Now()
	series, err := technical.BuildChartSeries(r.Context(), s.deps.Provider, ticker, tf, now)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	page, err := report.ChartPage(series, now)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	Upstream *upstream.Status `json:"upstream,omitempty"`
	Config   any              `json:"config"`
}

// handleStatus reports the upstream client's state and the running
// configuration with the API key masked.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Config: s.cfg.Redacted()}
	if s.deps.Upstream != nil {
		st := s.deps.Upstream.Status()
		resp.Upstream = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeFailure maps an error to its HTTP status and writes {"error": ...}.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, retryAfter := StatusFor(err)
	if retryAfter > 0 {
		w.Header().Set(retryAfterHeader, strconv.Itoa(retryAfter))
	}
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// StatusFor returns the HTTP status for err and, for rate limiting, the
// Retry-After value in whole seconds rounded up.
func StatusFor(err error) (status int, retryAfter int) {
	var (
		ue      *upstream.Error
		missing *fmp.ErrMissingParam
		absent  *fmp.ErrNotFound
	)
	switch {
	case errors.As(err, &ue) && ue.Kind != 0:
		switch ue.Kind {
		case upstream.KindRateLimited:
			secs := int(math.Ceil(ue.RetryAfter.Seconds()))
			return http.StatusTooManyRequests, max(secs, 1)
		case upstream.KindRejected:
			if ue.Status == http.StatusNotFound {
				return http.StatusNotFound, 0
			}
			return http.StatusBadRequest, 0
		case upstream.KindUnavailable:
			return http.StatusServiceUnavailable, 0
		case upstream.KindProtocol:
			return http.StatusBadGateway, 0
		}
	case errors.As(err, &missing), errors.Is(err, technical.ErrInvalidTimeFrame):
		return http.StatusBadRequest, 0
	case errors.As(err, &absent), errors.Is(err, technical.ErrNoData),
		errors.Is(err, fundamental.ErrStatementsUnavailable),
		errors.Is(err, fundamental.ErrSharesUnavailable):
		return http.StatusNotFound, 0
	}
	return http.StatusInternalServerError, 0
}
