package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/assistant"
	"github.com/kassabok/kassabok/internal/chatstream"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/report"
	"github.com/kassabok/kassabok/internal/review"
	"github.com/kassabok/kassabok/internal/verification"
)

const dateLayout = "2006-01-02"

type verificationRequest struct {
	Date        string                  `json:"date"`
	Description string                  `json:"description"`
	Rows        []model.VerificationRow `json:"rows"`
}

func (req verificationRequest) verification() (model.Verification, error) {
	v := model.Verification{Description: req.Description, Rows: req.Rows}
	if req.Date == "" {
		return v, nil
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return v, fmt.Errorf("invalid date %q: want YYYY-MM-DD", req.Date)
	}
	v.Date = date
	return v, nil
}

type validationResponse struct {
	verification.Result
	Errors []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

type incomeStatementResponse struct {
	Year   int                `json:"year"`
	Period model.Period       `json:"period"`
	Lines  []model.ReportLine `json:"lines"`
}

type balanceSheetResponse struct {
	report.BalanceSheet
	Difference decimal.Decimal `json:"difference"`
	Mismatch   bool            `json:"mismatch"`
	Warning    string          `json:"warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("writing response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	writeJSON(w, r, code, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func checkMessages(verrs []verification.ValidationError) []string {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return msgs
}

func (s *Server) dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

func (s *Server) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	v, err := req.verification()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	resp := validationResponse{Result: verification.Validate(v.Rows)}
	if !v.Date.IsZero() {
		resp.Errors = checkMessages(verification.Check(v, s.deps.Accounts))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	v, err := req.verification()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	booked, err := s.deps.Ledger.Book(r.Context(), v)
	switch {
	case errors.Is(err, verification.ErrInvalid):
		s.metrics.bookings.WithLabelValues("rejected").Inc()
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:  verification.ErrInvalid.Error(),
			Errors: checkMessages(verification.Check(v, s.deps.Accounts)),
		})
	case err != nil:
		s.metrics.bookings.WithLabelValues("failed").Inc()
		writeError(w, r, http.StatusInternalServerError, err)
	default:
		s.metrics.bookings.WithLabelValues("booked").Inc()
		writeJSON(w, r, http.StatusCreated, booked)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	from, err := s.dateParam(r, "from", time.Time{})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	to, err := s.dateParam(r, "to", s.today())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	vs, err := s.deps.Ledger.List(r.Context(), model.Period{Start: from, End: to})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if vs == nil {
		vs = []model.Verification{}
	}
	writeJSON(w, r, http.StatusOK, vs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Ledger.Get(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, verification.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
	default:
		writeJSON(w, r, http.StatusOK, v)
	}
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	date := s.today()
	if req.Date != "" {
		var err error
		if date, err = time.Parse(dateLayout, req.Date); err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid date %q: want YYYY-MM-DD", req.Date))
			return
		}
	}

	v, err := s.deps.Ledger.Reverse(r.Context(), mux.Vars(r)["id"], date)
	switch {
	case errors.Is(err, verification.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, verification.ErrAlreadyReversed):
		writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, verification.ErrInvalid):
		writeError(w, r, http.StatusUnprocessableEntity, err)
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
	default:
		writeJSON(w, r, http.StatusCreated, v)
	}
}

func (s *Server) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	year := s.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid year %q", raw))
			return
		}
		year = y
	}
	start := time.Date(year, s.deps.FiscalMonth, s.deps.FiscalDay, 0, 0, 0, 0, time.UTC)
	period := model.Period{Start: start, End: start.AddDate(1, 0, -1)}

	vs, err := s.deps.Ledger.List(r.Context(), period)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incomeStatementResponse{
		Year:   year,
		Period: period,
		Lines:  report.IncomeStatementFor(vs, period),
	})
}

// handleBalanceSheet answers 200 even when the sheet does not balance;
// the mismatch is reported in the body and never corrected.
func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.dateParam(r, "asOf", s.today())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	vs, err := s.deps.Ledger.List(r.Context(), model.Through(asOf))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	sheet := report.BalanceSheetAsOf(vs, asOf, report.WithFiscalYearStart(s.deps.FiscalMonth, s.deps.FiscalDay))
	resp := balanceSheetResponse{BalanceSheet: sheet, Difference: sheet.Difference()}
	if err := sheet.Check(); err != nil {
		s.metrics.mismatches.Inc()
		logging.FromContext(r.Context()).Warn("balance sheet mismatch", zap.Error(err))
		resp.Mismatch = true
		resp.Warning = err.Error()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Review == nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("review not configured"))
		return
	}
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	if month < 1 || month > 12 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid month %d", month))
		return
	}
	writeJSON(w, r, http.StatusOK, review.Build(r.Context(), s.deps.Review, year, month))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("assistant not configured"))
		return
	}
	var req assistant.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("no messages"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var opts []chatstream.WriterOption
	if s.chunkDelay > 0 {
		opts = append(opts, chatstream.WithChunkDelay(s.chunkDelay, s.chunkSize))
	}
	if err := s.deps.Assistant.Chat(r.Context(), req, chatstream.NewWriter(w, opts...)); err != nil {
		logging.FromContext(r.Context()).Warn("chat stream ended", zap.Error(err))
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("assistant not configured"))
		return
	}
	tr, err := s.deps.Assistant.Confirm(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, assistant.ErrActionNotFound):
		writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
	default:
		writeJSON(w, r, http.StatusOK, tr)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant == nil {
		writeError(w, r, http.StatusServiceUnavailable, errors.New("assistant not configured"))
		return
	}
	if err := s.deps.Assistant.Cancel(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
