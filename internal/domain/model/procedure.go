package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ProcedureStatus is the stage of a debt-collection case
type ProcedureStatus string

const (
	ProcedureStatusBrouillons                ProcedureStatus = "BROUILLONS"
	ProcedureStatusNouveau                   ProcedureStatus = "NOUVEAU"
	ProcedureStatusEnCours                   ProcedureStatus = "EN_COURS"
	ProcedureStatusMiseEnDemeure             ProcedureStatus = "MISE_EN_DEMEURE"
	ProcedureStatusEcheancier                ProcedureStatus = "ECHEANCIER"
	ProcedureStatusInjonctionDePaiement      ProcedureStatus = "INJONCTION_DE_PAIEMENT"
	ProcedureStatusInjonctionDePaiementPayer ProcedureStatus = "INJONCTION_DE_PAIEMENT_PAYER"
	ProcedureStatusInjonctionDePaiementFini  ProcedureStatus = "INJONCTION_DE_PAIEMENT_FINI"
	ProcedureStatusResolu                    ProcedureStatus = "RESOLU"
	ProcedureStatusAnnule                    ProcedureStatus = "ANNULE"
)

// PaidTarget is the status a procedure moves to once its payment succeeded
func PaidTarget(isInjonction bool) ProcedureStatus {
	if isInjonction {
		return ProcedureStatusInjonctionDePaiementPayer
	}
	return ProcedureStatusNouveau
}

// UnpaidTarget is the status a procedure falls back to when its payment did not go through
func UnpaidTarget(isInjonction bool) ProcedureStatus {
	if isInjonction {
		return ProcedureStatusInjonctionDePaiement
	}
	return ProcedureStatusBrouillons
}

// IsInjonction reports whether the status belongs to the court injunction stage
func (s ProcedureStatus) IsInjonction() bool {
	switch s {
	case ProcedureStatusInjonctionDePaiement, ProcedureStatusInjonctionDePaiementPayer, ProcedureStatusInjonctionDePaiementFini:
		return true
	}
	return false
}

// MaxInstallments caps the installment schedule stored on a procedure
const MaxInstallments = 5

// Installment is one entry of a payment schedule
type Installment struct {
	Date    string          `json:"date"`
	Montant decimal.Decimal `json:"montant"`
}

// Installments is stored as a JSON array column
type Installments []Installment

// Capped returns at most MaxInstallments entries, in order
func (i Installments) Capped() Installments {
	if len(i) <= MaxInstallments {
		return i
	}
	return i[:MaxInstallments]
}

// Value implements driver.Valuer interface
func (i Installments) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (i *Installments) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*i = nil
		return nil
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	default:
		return fmt.Errorf("unsupported installments source %T", src)
	}
}

// GormDBDataType picks jsonb on postgres and plain JSON text elsewhere
func (Installments) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// Procedure is one debt-collection case ("dossier")
type Procedure struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	UserID         string          `gorm:"size:36;not null;index" json:"user_id"`
	ClientID       *string         `gorm:"size:36;index" json:"client_id,omitempty"`
	Status         ProcedureStatus `gorm:"size:40;not null;index" json:"status"`
	PaymentStatus  *PaymentStatus  `gorm:"size:20" json:"payment_status,omitempty"`
	PaymentID      *string         `gorm:"size:36;index" json:"payment_id,omitempty"`
	MontantDu      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"montant_du"`
	Description    string          `json:"description"`
	Echeancier     Installments    `json:"echeancier"`
	HasFacturation bool            `gorm:"not null;default:false" json:"has_facturation"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Relations
	Client    *Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Documents []Document `gorm:"foreignKey:ProcedureID" json:"documents,omitempty"`
}

// TableName specifies the table name for GORM
func (Procedure) TableName() string {
	return "procedures"
}

// IsPaidWith reports whether the procedure already sits at the paid target with a succeeded payment
func (p *Procedure) IsPaidWith(target ProcedureStatus) bool {
	return p.Status == target && p.PaymentStatus != nil && *p.PaymentStatus == PaymentStatusSucceeded
}
