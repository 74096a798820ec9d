package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FileMeta stores metadata about an uploaded document file.
type FileMeta struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UploadedBy   uuid.UUID  `db:"uploaded_by" json:"uploaded_by"`
	FileName     string     `db:"file_name" json:"file_name"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string     `db:"s3_key" json:"s3_key"`
	ContentType  string     `db:"content_type" json:"content_type"`
	Status       FileStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Document represents a processed underwriting document linked to an
// uploaded file. Extractions, Metrics, and ValidationReport hold the JSONB
// outputs of the extraction pipeline.
type Document struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	FileID           uuid.UUID       `db:"file_id" json:"file_id"`
	FileName         string          `db:"file_name" json:"file_name"`
	Status           DocumentStatus  `db:"status" json:"status"`
	ProcessingError  string          `db:"processing_error" json:"processing_error"`
	Extractions      json.RawMessage `db:"extractions" json:"extractions"`
	Metrics          json.RawMessage `db:"metrics" json:"metrics"`
	ValidationReport json.RawMessage `db:"validation_report" json:"validation_report"`
	ProcessAttempts  int             `db:"process_attempts" json:"process_attempts"`
	ProcessedAt      *time.Time      `db:"processed_at" json:"processed_at"`
	CreatedBy        uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}
