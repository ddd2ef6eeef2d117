package model

// User is an operator account. Password is always an opaque bcrypt hash;
// plaintext passwords never cross this boundary.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Disabled     bool   `json:"disabled"`
}

// UserList is the trimmed projection returned by the user enumeration
// endpoint.
type UserList struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

// OcrArtifact is one append-only OCR run recorded against a document.
// The "current" artifact for a document is the most recent by Timestamp.
type OcrArtifact struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Result     OcrResult `json:"result"`
	Timestamp  int64     `json:"timestamp"`
}
