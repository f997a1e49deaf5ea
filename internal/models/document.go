package models

import "time"

// Document is an uploaded file attached to a client. Bytes live on disk;
// only metadata is stored.
type Document struct {
	ID           string    `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"clientId"`
	FileName     string    `db:"file_name" json:"fileName"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	UploadedByID string    `db:"uploaded_by_id" json:"uploadedById"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ShareLink is a signed, expiring download reference for a document.
type ShareLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
