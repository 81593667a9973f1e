package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"

	"github.com/TresYap/sakaydb/internal/adapters/csvcodec"
	"github.com/TresYap/sakaydb/internal/app/ledger"
	"github.com/TresYap/sakaydb/internal/domain"
	"github.com/TresYap/sakaydb/internal/platform/metrics"
	"github.com/TresYap/sakaydb/internal/platform/validation"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

const maxBodyBytes = 8 << 20

// Server adapts the ledger service to HTTP.
type Server struct {
	Ledger *ledger.Service
}

func NewServer(svc *ledger.Service) *Server {
	return &Server{Ledger: svc}
}

func (s *Server) AddTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.Ledger.AddTrip(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TripCreated{TripID: int64(id)})
}

func (s *Server) AddTrips(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Records failing request validation are skipped like any other invalid record.
	log := loggerFrom(r.Context())
	inputs := make([]ledger.TripInput, 0, len(req.Trips))
	for i, t := range req.Trips {
		if err := validation.Struct(t); err != nil {
			metrics.TripsSkipped.WithLabelValues(metrics.SkipValidation).Inc()
			log.Warn().Int("index", i).Interface("fields", validation.FieldErrors(err)).Msg("skipping invalid trip record")
			continue
		}
		inputs = append(inputs, t.toInput())
	}

	ids, err := s.Ledger.AddTrips(r.Context(), inputs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := BatchResponse{TripIDs: make([]int64, 0, len(ids))}
	for _, id := range ids {
		out.TripIDs = append(out.TripIDs, int64(id))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	var tripID int64
	err := runtime.BindStyledParameterWithOptions("simple", "tripId", chi.URLParam(r, "tripId"), &tripID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeBadRequest(w, r, fmt.Sprintf("invalid tripId: %v", err))
		return
	}
	if err := s.Ledger.DeleteTrip(r.Context(), domain.TripID(tripID)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SearchTrips(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	preds := make([]ledger.Predicate, 0, len(req.Predicates))
	for i, p := range req.Predicates {
		pred, err := predicateFromRequest(p)
		if err != nil {
			err.Details = map[string]any{"index": i, "field": p.Field}
			writeServiceError(w, r, err)
			return
		}
		preds = append(preds, pred)
	}

	trips, err := s.Ledger.SearchTrips(r.Context(), preds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := SearchResponse{Trips: make([]TripRow, 0, len(trips))}
	for _, t := range trips {
		out.Trips = append(out.Trips, tripRowFromDomain(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ExportData(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeBadRequest(w, r, fmt.Sprintf("invalid format: %v", err))
		return
	}
	asCSV := false
	if format != nil {
		switch *format {
		case "json":
		case "csv":
			asCSV = true
		default:
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unsupported export format", map[string]any{"format": "must be one of: json csv"})
			return
		}
	}

	rows, err := s.Ledger.ExportData(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if asCSV {
		tbl := tablestore.Table{Columns: ledger.ExportColumns, Rows: make([][]string, 0, len(rows))}
		for _, row := range rows {
			tbl.Rows = append(tbl.Rows, row.Values())
		}
		w.Header().Set("Content-Type", csvcodec.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := csvcodec.Encode(w, tbl); err != nil {
			log := loggerFrom(r.Context())
			log.Error().Err(err).Msg("write csv export")
		}
		return
	}

	out := ExportResponse{Columns: ledger.ExportColumns, Rows: make([]ExportRecord, 0, len(rows))}
	for _, row := range rows {
		out.Rows = append(out.Rows, exportRecordFromRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GenerateStatistics(w http.ResponseWriter, r *http.Request) {
	var stat *string
	if err := runtime.BindQueryParameter("form", true, false, "stat", r.URL.Query(), &stat); err != nil {
		writeBadRequest(w, r, fmt.Sprintf("invalid stat: %v", err))
		return
	}
	name := ""
	if stat != nil {
		name = *stat
	}
	st, err := ledger.ParseStat(name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	stats, err := s.Ledger.GenerateStatistics(r.Context(), st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	body, err := statisticsBody(stats)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) GenerateODMatrix(w http.ResponseWriter, r *http.Request) {
	var (
		start, end *string
		bounds     []string
	)
	q := r.URL.Query()
	for name, dest := range map[string]any{"start": &start, "end": &end, "range": &bounds} {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			writeBadRequest(w, r, fmt.Sprintf("invalid %s: %v", name, err))
			return
		}
	}

	dr := ledger.AllDates
	var err error
	switch {
	case q.Has("range"):
		ptrs := make([]*string, len(bounds))
		for i := range bounds {
			ptrs[i] = emptyAsNil(&bounds[i])
		}
		dr, err = ledger.DateRangeFromBounds(ptrs)
	case q.Has("start") || q.Has("end"):
		dr, err = ledger.NewDateRange(emptyAsNil(start), emptyAsNil(end))
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	m, err := s.Ledger.GenerateODMatrix(r.Context(), dr)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// decodeBody decodes and validates a JSON request body, writing the error
// response itself when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeBadRequest(w, r, "request body is required")
			return false
		}
		writeBadRequest(w, r, fmt.Sprintf("malformed JSON body: %v", err))
		return false
	}
	if err := validation.Struct(v); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", validation.FieldErrors(err))
		return false
	}
	return true
}

func emptyAsNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func predicateFromRequest(p PredicateRequest) (ledger.Predicate, *ledger.Error) {
	raw := bytes.TrimSpace(p.Value)
	if len(raw) > 0 && raw[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return ledger.Predicate{}, invalidValue("malformed range for %q", p.Field)
		}
		if len(parts) != 2 {
			return ledger.Predicate{}, invalidValue("range for %q must have exactly two bounds, got %d", p.Field, len(parts))
		}
		low, err := scalarValue(p.Field, parts[0])
		if err != nil {
			return ledger.Predicate{}, err
		}
		high, err := scalarValue(p.Field, parts[1])
		if err != nil {
			return ledger.Predicate{}, err
		}
		return ledger.Between(p.Field, low, high), nil
	}

	v, err := scalarValue(p.Field, raw)
	if err != nil {
		return ledger.Predicate{}, err
	}
	if v == nil {
		return ledger.Predicate{}, invalidValue("value for %q must not be null", p.Field)
	}
	return ledger.Equals(p.Field, *v), nil
}

// scalarValue decodes a number, string or null.
func scalarValue(field string, raw []byte) (*ledger.Value, *ledger.Error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, invalidValue("malformed value for %q", field)
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		out := ledger.Number(x)
		return &out, nil
	case string:
		out := ledger.Text(x)
		return &out, nil
	default:
		return nil, invalidValue("value for %q must be a number, a string or a two-element range", field)
	}
}

func invalidValue(format string, args ...any) *ledger.Error {
	return &ledger.Error{Kind: ledger.KindValidation, Code: "VALIDATION_ERROR", Message: fmt.Sprintf(format, args...)}
}
