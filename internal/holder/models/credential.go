package models

import "time"

// Credential is the cached summary of a credential stored in the wallet.
type Credential struct {
	ID           int64             `json:"id,omitempty"`
	UserID       int64             `json:"user_id,omitempty"`
	CredentialID string            `json:"credential_id"`
	SchemaID     string            `json:"schema_id"`
	CredDefID    string            `json:"cred_def_id"`
	IssuerDID    string            `json:"issuer_did"`
	RevRegID     *string           `json:"rev_reg_id"`
	CredRevID    *string           `json:"cred_rev_id"`
	Attributes   map[string]string `json:"attributes"`
	DocumentCID  *string           `json:"document_cid"`
	IsRevoked    bool              `json:"is_revoked"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Document is an object kept in the document store, addressed by the
// SHA-256 of its content.
type Document struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CID        string    `json:"cid"`
	StorageKey string    `json:"-"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// DID is a wallet decentralized identifier with its verification key.
type DID struct {
	DID     string `json:"did"`
	Verkey  string `json:"verkey"`
	Posture string `json:"posture,omitempty"`
}
