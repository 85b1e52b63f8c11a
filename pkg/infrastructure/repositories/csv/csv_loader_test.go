package csv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

var now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestReadBatches(t *testing.T) {
	input := `id,quantity,stage,stage_entered_at
# sample seed
B-1001,120,Ready,-60h
B-1002, 84,proving,2025-06-01T13:00:00Z
B-1003,48,Defrosting,-1h12m
B-1004,140,Frozen,
`
	batches, err := NewLoader().ReadBatches(strings.NewReader(input), now)
	if err != nil {
		t.Fatalf("ReadBatches failed: %v", err)
	}

	expected := []entities.Batch{
		{ID: "B-1001", Quantity: 120, Stage: entities.Ready, StageEnteredAt: now.Add(-60 * time.Hour)},
		{ID: "B-1002", Quantity: 84, Stage: entities.Proving, StageEnteredAt: now.Add(-20 * time.Hour)},
		{ID: "B-1003", Quantity: 48, Stage: entities.Defrosting, StageEnteredAt: now.Add(-72 * time.Minute)},
		{ID: "B-1004", Quantity: 140, Stage: entities.Frozen},
	}
	if len(batches) != len(expected) {
		t.Fatalf("Expected %d batches, got %d", len(expected), len(batches))
	}
	for i, want := range expected {
		got := *batches[i]
		if got.ID != want.ID || got.Quantity != want.Quantity || got.Stage != want.Stage || !got.StageEnteredAt.Equal(want.StageEnteredAt) {
			t.Errorf("Row %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestReadBatches_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{"header_only", "id,quantity,stage,stage_entered_at\n", nil, "at least one data row"},
		{"bad_header", "id,qty,stage,when\nB-1,1,Frozen,\n", nil, "header mismatch"},
		{"bad_quantity", "id,quantity,stage,stage_entered_at\nB-1,lots,Frozen,\n", nil, "row 2: invalid quantity"},
		{"negative_quantity", "id,quantity,stage,stage_entered_at\nB-1,-5,Frozen,\n", entities.ErrInvalidQuantity, "row 2"},
		{"unknown_stage", "id,quantity,stage,stage_entered_at\nB-1,5,Baked,\n", entities.ErrInvalidStage, "row 2"},
		{"bad_timestamp", "id,quantity,stage,stage_entered_at\nB-1,5,Proving,yesterday\n", nil, "invalid stage_entered_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().ReadBatches(strings.NewReader(tt.input), now)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoadBatches_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batches.csv")
	content := "id,quantity,stage,stage_entered_at\nB-1,24,Proving,-10h\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	batches, err := NewLoader().LoadBatches(path, now)
	if err != nil {
		t.Fatalf("LoadBatches failed: %v", err)
	}
	if len(batches) != 1 || batches[0].ElapsedHours(now) != 10 {
		t.Errorf("Expected one batch proving for 10h, got %+v", batches)
	}

	if _, err := NewLoader().LoadBatches(filepath.Join(t.TempDir(), "missing.csv"), now); err == nil {
		t.Error("Expected error for missing file")
	}
}
