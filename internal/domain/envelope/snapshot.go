package envelope

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
)

// ProcedureSnapshot is the serialized draft carried in procedureData
type ProcedureSnapshot struct {
	Client      ClientSnapshot        `json:"client"`
	Documents   []DocumentSnapshot    `json:"documents,omitempty" validate:"dive"`
	Echeancier  []InstallmentSnapshot `json:"echeancier,omitempty" validate:"dive"`
	MontantDu   decimal.Decimal       `json:"montantDu"`
	Description string                `json:"description,omitempty"`
}

type ClientSnapshot struct {
	Siret         string `json:"siret" validate:"required,len=14,numeric"`
	RaisonSociale string `json:"raisonSociale" validate:"required"`
	Adresse       string `json:"adresse,omitempty"`
	CodePostal    string `json:"codePostal,omitempty"`
	Ville         string `json:"ville,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone     string `json:"telephone,omitempty"`
}

type DocumentSnapshot struct {
	Type         string          `json:"type" validate:"required,oneof=FACTURE AVOIR BON_DE_COMMANDE CONTRAT AUTRE"`
	Numero       string          `json:"numero,omitempty"`
	Montant      decimal.Decimal `json:"montant"`
	DateEmission string          `json:"dateEmission,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateEcheance string          `json:"dateEcheance,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FileURL      string          `json:"fileUrl,omitempty"`
}

type InstallmentSnapshot struct {
	Date    string          `json:"date" validate:"required,datetime=2006-01-02"`
	Montant decimal.Decimal `json:"montant"`
}

var validate = validator.New()

// Validate checks a snapshot submitted by a user before it is sent to the provider
func (s *ProcedureSnapshot) Validate() error {
	return validate.Struct(s)
}

// Siret returns the trimmed SIRET, or the placeholder when none was given
func (s *ProcedureSnapshot) Siret() string {
	siret := strings.TrimSpace(s.Client.Siret)
	if siret == "" {
		return model.PlaceholderSiret
	}
	return siret
}

// NewClient builds a client row for userID from the snapshot
func (s *ProcedureSnapshot) NewClient(userID string) *model.Client {
	return &model.Client{
		ID:            uuid.NewString(),
		UserID:        userID,
		Siret:         s.Siret(),
		RaisonSociale: s.Client.RaisonSociale,
		Adresse:       s.Client.Adresse,
		CodePostal:    s.Client.CodePostal,
		Ville:         s.Client.Ville,
		Email:         s.Client.Email,
		Telephone:     s.Client.Telephone,
	}
}

// ClientUpdates returns the client columns to overwrite in place
func (s *ProcedureSnapshot) ClientUpdates() map[string]interface{} {
	return map[string]interface{}{
		"siret":          s.Siret(),
		"raison_sociale": s.Client.RaisonSociale,
		"adresse":        s.Client.Adresse,
		"code_postal":    s.Client.CodePostal,
		"ville":          s.Client.Ville,
		"email":          s.Client.Email,
		"telephone":      s.Client.Telephone,
	}
}

// NewDocuments builds the document rows of procedureID
func (s *ProcedureSnapshot) NewDocuments(procedureID string) []model.Document {
	docs := make([]model.Document, 0, len(s.Documents))
	for _, d := range s.Documents {
		docType := model.DocumentType(d.Type)
		if docType == "" {
			docType = model.DocumentTypeAutre
		}
		docs = append(docs, model.Document{
			ID:           uuid.NewString(),
			ProcedureID:  procedureID,
			Type:         docType,
			Numero:       d.Numero,
			Montant:      d.Montant,
			DateEmission: d.DateEmission,
			DateEcheance: d.DateEcheance,
			FileURL:      d.FileURL,
		})
	}
	return docs
}

// Installments returns the schedule capped at model.MaxInstallments entries
func (s *ProcedureSnapshot) Installments() model.Installments {
	out := make(model.Installments, 0, len(s.Echeancier))
	for _, e := range s.Echeancier {
		out = append(out, model.Installment{Date: e.Date, Montant: e.Montant})
	}
	return out.Capped()
}

// NewProcedure builds a procedure from the snapshot. Documents are not attached.
func (s *ProcedureSnapshot) NewProcedure(userID, clientID string, status model.ProcedureStatus, hasFacturation bool) *model.Procedure {
	return &model.Procedure{
		ID:             uuid.NewString(),
		UserID:         userID,
		ClientID:       &clientID,
		Status:         status,
		MontantDu:      s.MontantDu,
		Description:    s.Description,
		Echeancier:     s.Installments(),
		HasFacturation: hasFacturation,
	}
}
