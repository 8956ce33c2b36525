package infrastructure

import (
	"context"
	"testing"

	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// The amendment_token column is typed uuid, so a malformed token from the
// public URL must be rejected before it ever reaches the query. The
// caller sees the same vague not-found as a consumed token.
func TestUpdateByTokenRejectsMalformedToken(t *testing.T) {
	repo := NewPostgresRepository(nil)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a uuid", "not-a-uuid"},
		{"truncated uuid", "123e4567-e89b-12d3-a456"},
		{"sql injection attempt", "' OR 1=1 --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.UpdateByToken(context.Background(), tt.token, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.IsNotFound(err) {
				t.Errorf("error = %v, want the invalid-token not-found", err)
			}
		})
	}
}

func TestDecodeNotes(t *testing.T) {
	id := types.NewID()

	notes := decodeNotes(id, []byte(`[{"at":"2026-08-28T10:00:00Z","label":"SYSTEM","text":"noted"}]`))
	if len(notes) != 1 || notes[0].Text != "noted" {
		t.Fatalf("notes = %+v, want the one decoded entry", notes)
	}

	if notes := decodeNotes(id, []byte(`{broken`)); notes != nil {
		t.Errorf("corrupt payload decoded to %+v, want nil", notes)
	}
	if notes := decodeNotes(id, nil); notes != nil {
		t.Errorf("empty payload decoded to %+v, want nil", notes)
	}
}
