package model

import "time"

// PlaceholderSiret marks a client row attached to a draft before the debtor is identified
const PlaceholderSiret = "00000000000000"

// Client is the debtor company a procedure is opened against
type Client struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;not null;uniqueIndex:idx_clients_user_siret" json:"user_id"`
	Siret         string    `gorm:"size:14;not null;uniqueIndex:idx_clients_user_siret" json:"siret"`
	RaisonSociale string    `gorm:"size:255" json:"raison_sociale"`
	Adresse       string    `gorm:"size:255" json:"adresse"`
	CodePostal    string    `gorm:"size:10" json:"code_postal"`
	Ville         string    `gorm:"size:100" json:"ville"`
	Email         string    `gorm:"size:255" json:"email"`
	Telephone     string    `gorm:"size:30" json:"telephone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// HasPlaceholderSiret reports whether the client identity is still unknown
func (c *Client) HasPlaceholderSiret() bool {
	return c.Siret == "" || c.Siret == PlaceholderSiret
}
