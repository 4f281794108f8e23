package models

import "time"

// RawRecord is one failure-bearing checklist as handed over by the
// persistence boundary. Values are loosely typed; only the Normalizer reads it.
type RawRecord map[string]any

// Sentinel categories used instead of missing values after normalization.
const (
	LineOther         = "Outros"
	CauseUndetermined = "Causa Indeterminada"
	UnknownSector     = "Desconhecido"
	UnknownIdentity   = "Desconhecido"
	UnknownFailure    = "Não informado"
)

// FailureRecord is one inspected-failure instance after normalization.
// Every field has a defined value; analyzers never probe for alternatives.
type FailureRecord struct {
	DocumentID   string `json:"document_id"`
	FailureIndex int    `json:"failure_index"`

	Product           string `json:"product"`
	ProductLine       string `json:"product_line"`
	FailureLabel      string `json:"failure_label"`
	Sector            string `json:"detection_sector"`
	Identity          string `json:"identity"`
	RootCauseBasic    string `json:"root_cause_basic"`
	RootCauseDetailed string `json:"root_cause_detailed"`
	ComponentLocation string `json:"component_location,omitempty"`
	BoardSide         string `json:"board_side,omitempty"`

	Quantity         int     `json:"quantity"`
	QuantityProduced int     `json:"quantity_produced"`
	QuantityDaily    int     `json:"quantity_daily"`
	DefectRate       float64 `json:"defect_rate_metric"`

	RecordDate time.Time `json:"record_date"`

	CombinedObservation string `json:"combined_observation"`
}
