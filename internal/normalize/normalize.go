// Package normalize flattens raw checklist records into FailureRecords,
// one row per inspected failure, with every derived field resolved.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Raw record keys read by the normalizer.
const (
	KeyID                = "id"
	KeyDocumentID        = "document_id"
	KeyProduct           = "product"
	KeyQuantity          = "quantity"
	KeyFailure           = "failure"
	KeySector            = "sector"
	KeyDepartment        = "department"
	KeyComponentLocation = "component_location"
	KeyBoardSide         = "board_side"
	KeyFailures          = "failures"
	KeyProductionNote    = "production_note"
	KeyAssistanceNote    = "assistance_note"
	KeyCreatedAt         = "created_at"
	KeyFinalizedAt       = "finalized_at"
	KeyRecordDate        = "record_date"
	KeyQuantityProduced  = "quantity_produced"
	KeyQuantityDaily     = "quantity_daily"
	KeyOperatorID        = "operator_id"
	KeyMachineID         = "machine_id"
	KeyResponsible       = "responsible"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Options controls how records are flattened.
type Options struct {
	// FlattenMultiFailure expands the nested failures list into one row
	// per failure. Records carrying a failures key that is empty or not a
	// list are dropped.
	FlattenMultiFailure bool
}

// Normalizer turns raw records into FailureRecords using the domain tables.
type Normalizer struct {
	tables *domain.Tables
	logger *slog.Logger
}

// New creates a Normalizer. A nil tables argument selects domain.Default().
func New(tables *domain.Tables) *Normalizer {
	if tables == nil {
		tables = domain.Default()
	}
	return &Normalizer{
		tables: tables,
		logger: slog.Default().With("component", "normalize"),
	}
}

// Flatten normalizes raw into a flat table. It never fails: rows without a
// document identity or with a malformed failures list are skipped, and an
// empty (non-nil) slice is returned when nothing is usable.
func (n *Normalizer) Flatten(raw []models.RawRecord, opts Options) []models.FailureRecord {
	out := make([]models.FailureRecord, 0, len(raw))
	ids := make([]identityRow, 0, len(raw))
	for i, rec := range raw {
		docID := documentID(rec)
		if docID == "" {
			n.logger.Debug("dropping record without document identity", "index", i)
			continue
		}

		parent := n.parentFields(rec, docID)

		nested, hasNested := rec[KeyFailures]
		if !opts.FlattenMultiFailure || !hasNested || nested == nil {
			row, id := n.derive(parent, failureFields{
				label:    stringField(rec, KeyFailure),
				sector:   stringField(rec, KeySector),
				location: stringField(rec, KeyComponentLocation),
				side:     stringField(rec, KeyBoardSide),
				note:     noteField(rec, KeyProductionNote),
			}, 0)
			out, ids = append(out, row), append(ids, id)
			continue
		}

		failures, ok := failureList(nested)
		if !ok || len(failures) == 0 {
			n.logger.Debug("dropping record with unusable failures list", "document_id", docID)
			continue
		}
		for idx, f := range failures {
			ff := failureFields{
				label:    stringField(f, KeyFailure),
				sector:   stringField(f, KeySector),
				location: stringField(f, KeyComponentLocation),
				side:     stringField(f, KeyBoardSide),
				note:     noteField(f, KeyProductionNote),
			}
			if ff.sector == "" {
				ff.sector = stringField(rec, KeySector)
			}
			if ff.note == "" {
				ff.note = noteField(rec, KeyProductionNote)
			}
			row, id := n.derive(parent, ff, idx)
			out, ids = append(out, row), append(ids, id)
		}
	}
	assignIdentity(out, ids)
	return out
}

// Identity columns in priority order.
const (
	idOperator = iota
	idMachine
	idResponsible
	idSector
	idDepartment
	idLine
	idColumns
)

type identityRow [idColumns]string

// assignIdentity picks one identity column for the whole table: the first
// column, in priority order, that any row fills. Rows lacking a value in
// that column get UnknownIdentity, so operators are never ranked together
// with sectors or product lines.
func assignIdentity(rows []models.FailureRecord, ids []identityRow) {
	col := -1
	for c := range idColumns {
		if slices.ContainsFunc(ids, func(id identityRow) bool { return id[c] != "" }) {
			col = c
			break
		}
	}
	for i := range rows {
		rows[i].Identity = models.UnknownIdentity
		if col >= 0 && ids[i][col] != "" {
			rows[i].Identity = ids[i][col]
		}
	}
}

type parentFields struct {
	docID          string
	product        string
	quantity       int
	produced       int
	daily          int
	recordDate     time.Time
	assistanceNote string
	department     string
	operator       string
	machine        string
	responsible    string
}

type failureFields struct {
	label    string
	sector   string
	location string
	side     string
	note     string
}

func (n *Normalizer) parentFields(rec models.RawRecord, docID string) parentFields {
	// (1) dates: explicit record date, then finalization, then creation.
	date := timeField(rec, KeyRecordDate)
	if date.IsZero() {
		date = timeField(rec, KeyFinalizedAt)
	}
	if date.IsZero() {
		date = timeField(rec, KeyCreatedAt)
	}

	// (2) quantities
	return parentFields{
		docID:          docID,
		product:        stringField(rec, KeyProduct),
		quantity:       intField(rec, KeyQuantity),
		produced:       intField(rec, KeyQuantityProduced),
		daily:          intField(rec, KeyQuantityDaily),
		recordDate:     date,
		assistanceNote: noteField(rec, KeyAssistanceNote),
		department:     stringField(rec, KeyDepartment),
		operator:       stringField(rec, KeyOperatorID),
		machine:        stringField(rec, KeyMachineID),
		responsible:    stringField(rec, KeyResponsible),
	}
}

func (n *Normalizer) derive(p parentFields, f failureFields, idx int) (models.FailureRecord, identityRow) {
	sector := firstNonEmpty(f.sector, p.department)
	if sector == "" {
		sector = models.UnknownSector
	}
	label := f.label
	if label == "" {
		label = models.UnknownFailure
	}

	// (3) product line, (4) basic cause, (5) detailed cause.
	line := n.tables.ProductLine(p.product)
	basic := n.tables.RootCause(label)
	detailed := n.tables.DetailedRootCause(label, sector, basic)

	id := identityRow{
		idOperator:    known(p.operator),
		idMachine:     known(p.machine),
		idResponsible: known(p.responsible),
		idSector:      known(f.sector),
		idDepartment:  known(p.department),
		idLine:        known(line),
	}

	return models.FailureRecord{
		DocumentID:          p.docID,
		FailureIndex:        idx,
		Product:             p.product,
		ProductLine:         line,
		FailureLabel:        label,
		Sector:              sector,
		RootCauseBasic:      basic,
		RootCauseDetailed:   detailed,
		ComponentLocation:   f.location,
		BoardSide:           f.side,
		Quantity:            p.quantity,
		QuantityProduced:    p.produced,
		QuantityDaily:       p.daily,
		DefectRate:          DefectRate(p.quantity, p.produced, p.daily),
		RecordDate:          p.recordDate,
		CombinedObservation: CombineObservations(f.note, p.assistanceNote), // (6)
	}, id
}

// DefectRate returns defects per million units. The produced volume is
// preferred, then the daily counter; with neither known the rate is 0.
func DefectRate(quantity, produced, daily int) float64 {
	denom := produced
	if denom <= 0 {
		denom = daily
	}
	if denom <= 0 {
		return 0
	}
	return float64(quantity) * 1_000_000 / float64(denom)
}

// CombineObservations joins the note fragments with single spaces.
func CombineObservations(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func documentID(rec models.RawRecord) string {
	if id := stringField(rec, KeyDocumentID); id != "" {
		return id
	}
	return stringField(rec, KeyID)
}

func failureList(v any) ([]map[string]any, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, false
		}
		var decoded []map[string]any
		if err := json.Unmarshal([]byte(x), &decoded); err != nil {
			return nil, false
		}
		return decoded, true
	case []byte:
		return failureList(string(x))
	case json.RawMessage:
		return failureList(string(x))
	case []map[string]any:
		return x, true
	case []models.RawRecord:
		out := make([]map[string]any, len(x))
		for i, r := range x {
			out[i] = r
		}
		return out, true
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, m)
			case models.RawRecord:
				out = append(out, m)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func stringField[M ~map[string]any](m M, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// noteField accepts a string or a list of fragments.
func noteField[M ~map[string]any](m M, key string) string {
	switch v := m[key].(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if p != nil {
				parts = append(parts, fmt.Sprint(p))
			}
		}
		return CombineObservations(parts...)
	case []string:
		return CombineObservations(v...)
	default:
		return CombineObservations(stringField(m, key))
	}
}

func intField(m models.RawRecord, key string) int {
	var f float64
	switch v := m[key].(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func timeField(m models.RawRecord, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if known(v) != "" {
			return v
		}
	}
	return ""
}

// known maps the unknown sentinel to the empty string.
func known(v string) string {
	if v == models.UnknownSector {
		return ""
	}
	return v
}
