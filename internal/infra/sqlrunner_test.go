package infra

import (
	"strings"
	"testing"

	"tryon/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	marker, trimmed, err := extractMarker("--sql list_things\nselect * from things")
	if err != nil {
		t.Fatalf("extractMarker: %v", err)
	}
	if marker != "list_things" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "select * from things" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarked(t *testing.T) {
	cases := []string{
		"select 1",
		"--sql Bad-Name\nselect 1",
		"-- sql missing_prefix\nselect 1",
		"",
	}
	for _, q := range cases {
		if _, _, err := extractMarker(q); err == nil {
			t.Errorf("extractMarker(%q): expected error", q)
		}
	}
}

func TestInlineQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"ensure_generations":          sqlinline.QEnsureGenerations,
		"ensure_generations_index":    sqlinline.QEnsureGenerationsIndex,
		"ensure_gallery":              sqlinline.QEnsureGallery,
		"insert_generation":           sqlinline.QInsertGeneration,
		"list_generations_by_session": sqlinline.QListGenerationsBySession,
		"insert_gallery_image":        sqlinline.QInsertGalleryImage,
		"list_gallery_images":         sqlinline.QListGalleryImages,
		"get_gallery_image":           sqlinline.QGetGalleryImage,
		"delete_gallery_image":        sqlinline.QDeleteGalleryImage,
	}
	for name, q := range queries {
		marker, trimmed, err := extractMarker(q)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if marker != name {
			t.Errorf("marker = %q, want %q", marker, name)
		}
		if strings.TrimSpace(trimmed) == "" {
			t.Errorf("%s: empty query body", name)
		}
	}
}
