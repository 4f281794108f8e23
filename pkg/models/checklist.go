package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChecklistStatusPending  = "PENDENTE"
	ChecklistStatusComplete = "COMPLETO"
)

// Production entry kinds.
const (
	ProductionDaily   = "D"
	ProductionMonthly = "M"
)

// Checklist is one inspection checklist. A checklist carries either a single
// failure (Failure/Sector fields) or a list of Failures.
type Checklist struct {
	ID                    int64        `db:"id"                     json:"id"`
	DocumentID            string       `db:"document_id"            json:"document_id"`
	Product               string       `db:"product"                json:"product"`
	Quantity              int          `db:"quantity"               json:"quantity"`
	Responsible           string       `db:"responsible"            json:"responsible"`
	AssistanceResponsible *string      `db:"assistance_responsible" json:"assistance_responsible,omitempty"`
	Status                string       `db:"status"                 json:"status"`
	Failure               *string      `db:"failure"                json:"failure,omitempty"`
	Sector                *string      `db:"sector"                 json:"sector,omitempty"`
	ComponentLocation     *string      `db:"component_location"     json:"component_location,omitempty"`
	BoardSide             *string      `db:"board_side"             json:"board_side,omitempty"`
	Failures              []Failure    `db:"failures"               json:"failures,omitempty"`
	ProductionNote        *string      `db:"production_note"        json:"production_note,omitempty"`
	AssistanceNote        *string      `db:"assistance_note"        json:"assistance_note,omitempty"`
	Inspection            []Inspection `db:"inspection"             json:"inspection,omitempty"`
	CreatedAt             time.Time    `db:"created_at"             json:"created_at"`
	FinalizedAt           *time.Time   `db:"finalized_at"           json:"finalized_at,omitempty"`
}

// Failure is one nested failure of a multi-failure checklist.
type Failure struct {
	Failure           string `json:"failure"`
	Sector            string `json:"sector,omitempty"`
	ComponentLocation string `json:"component_location,omitempty"`
	BoardSide         string `json:"board_side,omitempty"`
	ProductionNote    string `json:"production_note,omitempty"`
}

// Inspection is the per-failure domain analysis attached to a checklist.
type Inspection struct {
	ID             uuid.UUID `json:"id"`
	FailureIndex   int       `json:"failure_index"`
	Failure        string    `json:"failure"`
	Status         string    `json:"status"`
	RootCause      string    `json:"root_cause"`
	ProductLine    string    `json:"product_line"`
	Recommendation string    `json:"recommendation,omitempty"`
	Message        string    `json:"message"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// ProductionEntry is a daily or monthly production counter.
type ProductionEntry struct {
	ID              int64     `db:"id"               json:"id"`
	Date            time.Time `db:"record_date"      json:"record_date"`
	Kind            string    `db:"kind"             json:"kind"`
	DailyQuantity   int       `db:"daily_quantity"   json:"daily_quantity"`
	MonthlyQuantity int       `db:"monthly_quantity" json:"monthly_quantity"`
	DailyNote       *string   `db:"daily_note"       json:"daily_note,omitempty"`
	MonthlyNote     *string   `db:"monthly_note"     json:"monthly_note,omitempty"`
	Responsible     string    `db:"responsible"      json:"responsible"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
}
