package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocumentTypeFacture       DocumentType = "FACTURE"
	DocumentTypeAvoir         DocumentType = "AVOIR"
	DocumentTypeBonDeCommande DocumentType = "BON_DE_COMMANDE"
	DocumentTypeContrat       DocumentType = "CONTRAT"
	DocumentTypeAutre         DocumentType = "AUTRE"
)

// Document is a supporting document (invoice, contract...) attached to a procedure
type Document struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	ProcedureID string          `gorm:"size:36;not null;index" json:"procedure_id"`
	Type        DocumentType    `gorm:"size:30;not null" json:"type"`
	Numero      string          `gorm:"size:100" json:"numero"`
	Montant     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"montant"`
	// Dates are kept as YYYY-MM-DD strings, as entered
	DateEmission string    `gorm:"size:10" json:"date_emission"`
	DateEcheance string    `gorm:"size:10" json:"date_echeance"`
	FileURL      string    `gorm:"column:file_url" json:"file_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Document) TableName() string {
	return "documents"
}
