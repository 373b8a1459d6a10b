package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
)

func sampleTables() *profile.Tables {
	return &profile.Tables{
		Tags: map[string]uint32{"fox": 0, "blue": 1},
		Reactions: []profile.ReactedPost{
			{PostID: 1, Reaction: profile.Reaction{Favorited: true}, Tags: []uint32{0}},
			{PostID: 2, Reaction: profile.Reaction{}, Tags: []uint32{1}},
			{PostID: 3, Reaction: profile.Reaction{Upvoted: true}, Tags: []uint32{}},
		},
		Model: profile.ModelTable{
			Frequencies: []profile.Frequency{{3, 1}, {1, 3}},
			LogProbs:    []profile.LogProb{{Pos: -0.41503748, Neg: -2}, {Pos: -2, Neg: -0.41503748}},
			TotalPos:    4,
			TotalNeg:    4,
			Prior:       0,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		tables *profile.Tables
	}{
		{name: "populated", tables: sampleTables()},
		{name: "empty", tables: profile.EmptyTables()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.tables); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.tables) {
				t.Errorf("Read() = %+v, want %+v", got, tt.tables)
			}
		})
	}
}

func TestReadRestoresProfile(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTables()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tables, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	p, err := profile.FromTables(tables, nil, source.Credentials{})
	if err != nil {
		t.Fatalf("FromTables failed: %v", err)
	}
	if got := p.Stats().Posts; got != 3 {
		t.Errorf("Stats().Posts = %d, want 3", got)
	}
}

func TestReadNullFields(t *testing.T) {
	doc := `{"version": 1, "tags": null, "reactions": [{"post_id": 4, "reaction": {"favorited": false, "upvoted": false}, "tags": null}], "model": {}}`

	got, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Tags == nil || got.Model.Frequencies == nil || got.Model.LogProbs == nil {
		t.Errorf("expected empty, non-nil tables: %+v", got)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].Tags == nil {
		t.Errorf("Reactions = %+v", got.Reactions)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantVersion bool
	}{
		{name: "not json", doc: "tags,reactions"},
		{name: "truncated", doc: `{"version": 1, "tags": {"fox": 0}`},
		{name: "wrong type", doc: `{"version": 1, "tags": ["fox"]}`},
		{name: "missing version", doc: `{"tags": {}}`, wantVersion: true},
		{name: "future version", doc: `{"version": 2}`, wantVersion: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			if !errors.Is(err, profile.ErrCorruptProfile) {
				t.Fatalf("Read() error = %v, want ErrCorruptProfile", err)
			}
			if got := errors.Is(err, ErrUnsupportedVersion); got != tt.wantVersion {
				t.Errorf("errors.Is(err, ErrUnsupportedVersion) = %v, want %v", got, tt.wantVersion)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "profile.json")

	if err := Save(path, sampleTables()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, sampleTables()) {
		t.Errorf("Load() = %+v, want %+v", got, sampleTables())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
