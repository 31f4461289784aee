// Package store persists generation history and the saved-image gallery.
// Persistence is an optional collaborator: the generation pipeline works the
// same whether or not a store is configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// Generation kinds recorded in history.
const (
	KindGarmentSwap  = "garment_swap"
	KindStyleVariant = "style_variant"
)

// GenerationRecord is one row of generation history.
type GenerationRecord struct {
	ID                int64     `json:"id"`
	SessionID         string    `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	Kind              string    `json:"kind"`
	ModelImageKey     string    `json:"model_image_key,omitempty"`
	FlatlayImageKey   string    `json:"flatlay_image_key,omitempty"`
	GuidanceImageKey  string    `json:"guidance_image_key,omitempty"`
	OutputImageKey    string    `json:"output_image_key,omitempty"`
	Refinements       string    `json:"refinements,omitempty"`
	OutputSize        string    `json:"output_size,omitempty"`
	PromptUsed        string    `json:"-"`
	Success           bool      `json:"success"`
	FailureCategory   string    `json:"failure_category,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	ProcessingSeconds float64   `json:"processing_seconds"`
}

// GalleryImage describes one saved image without its payload.
type GalleryImage struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// History stores generation records and gallery images in Postgres.
type History struct {
	sql infra.SQLExecutor
}

// NewHistory wires a history store over the given executor.
func NewHistory(sql infra.SQLExecutor) (*History, error) {
	if sql == nil {
		return nil, errors.New("store: sql executor is required")
	}
	return &History{sql: sql}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (h *History) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		sqlinline.QEnsureGenerations,
		sqlinline.QEnsureGenerationsIndex,
		sqlinline.QEnsureGallery,
	}
	for _, stmt := range stmts {
		if _, err := h.sql.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

// RecordGeneration inserts one history row and fills in ID and CreatedAt.
func (h *History) RecordGeneration(ctx context.Context, rec *GenerationRecord) error {
	row := h.sql.QueryRow(ctx, sqlinline.QInsertGeneration,
		rec.SessionID,
		rec.Kind,
		nullable(rec.ModelImageKey),
		nullable(rec.FlatlayImageKey),
		nullable(rec.GuidanceImageKey),
		nullable(rec.OutputImageKey),
		nullable(rec.Refinements),
		nullable(rec.OutputSize),
		nullable(rec.PromptUsed),
		rec.Success,
		nullable(rec.FailureCategory),
		nullable(rec.ErrorMessage),
		rec.ProcessingSeconds,
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("store: record generation: %w", err)
	}
	return nil
}

// ListGenerations returns the most recent history rows for a session.
func (h *History) ListGenerations(ctx context.Context, sessionID string, limit int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.sql.Query(ctx, sqlinline.QListGenerationsBySession, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.CreatedAt,
			&rec.Kind,
			&rec.ModelImageKey,
			&rec.FlatlayImageKey,
			&rec.GuidanceImageKey,
			&rec.OutputImageKey,
			&rec.Refinements,
			&rec.OutputSize,
			&rec.Success,
			&rec.FailureCategory,
			&rec.ErrorMessage,
			&rec.ProcessingSeconds,
		); err != nil {
			return nil, fmt.Errorf("store: scan generation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveGalleryImage stores raw image bytes and returns its descriptor.
func (h *History) SaveGalleryImage(ctx context.Context, data []byte) (*GalleryImage, error) {
	if len(data) == 0 {
		return nil, errors.New("store: gallery image is empty")
	}
	img := &GalleryImage{SizeBytes: int64(len(data))}
	row := h.sql.QueryRow(ctx, sqlinline.QInsertGalleryImage, data)
	if err := row.Scan(&img.ID, &img.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: save gallery image: %w", err)
	}
	return img, nil
}

// ListGalleryImages returns descriptors for the most recent saved images.
func (h *History) ListGalleryImages(ctx context.Context, limit int) ([]GalleryImage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := h.sql.Query(ctx, sqlinline.QListGalleryImages, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list gallery images: %w", err)
	}
	defer rows.Close()

	var out []GalleryImage
	for rows.Next() {
		var img GalleryImage
		if err := rows.Scan(&img.ID, &img.CreatedAt, &img.SizeBytes); err != nil {
			return nil, fmt.Errorf("store: scan gallery image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// GetGalleryImage returns the stored bytes for one saved image.
func (h *History) GetGalleryImage(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	row := h.sql.QueryRow(ctx, sqlinline.QGetGalleryImage, id)
	if err := row.Scan(&data); err != nil {
		return nil, fmt.Errorf("store: get gallery image: %w", err)
	}
	return data, nil
}

// DeleteGalleryImage removes one saved image.
func (h *History) DeleteGalleryImage(ctx context.Context, id int64) error {
	if _, err := h.sql.Exec(ctx, sqlinline.QDeleteGalleryImage, id); err != nil {
		return fmt.Errorf("store: delete gallery image: %w", err)
	}
	return nil
}

// nullable maps empty strings to NULL so optional columns stay NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
