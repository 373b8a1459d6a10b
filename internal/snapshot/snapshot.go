// Package snapshot stores profile tables as a portable JSON document.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vijay-prabhu/tageval/internal/profile"
)

// Version is the document format written by Write
const Version = 1

// ErrUnsupportedVersion is returned for documents from a newer or unknown format
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Document is the on-disk form of profile.Tables
type Document struct {
	Version   int                   `json:"version"`
	Tags      map[string]uint32     `json:"tags"`
	Reactions []profile.ReactedPost `json:"reactions"`
	Model     profile.ModelTable    `json:"model"`
}

// Write encodes the tables to w
func Write(w io.Writer, t *profile.Tables) error {
	doc := Document{
		Version:   Version,
		Tags:      t.Tags,
		Reactions: t.Reactions,
		Model:     t.Model,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Read decodes tables from r. Consistency of the tables is checked when
// they are loaded into a profile.
func Read(r io.Reader) (*profile.Tables, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot: %w", profile.ErrCorruptProfile, err)
	}

	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %w %d", profile.ErrCorruptProfile, ErrUnsupportedVersion, doc.Version)
	}

	t := profile.EmptyTables()
	if doc.Tags != nil {
		t.Tags = doc.Tags
	}
	for _, p := range doc.Reactions {
		if p.Tags == nil {
			p.Tags = []uint32{}
		}
		t.Reactions = append(t.Reactions, p)
	}
	if doc.Model.Frequencies != nil {
		t.Model.Frequencies = doc.Model.Frequencies
	}
	if doc.Model.LogProbs != nil {
		t.Model.LogProbs = doc.Model.LogProbs
	}
	t.Model.TotalPos = doc.Model.TotalPos
	t.Model.TotalNeg = doc.Model.TotalNeg
	t.Model.Prior = doc.Model.Prior

	return t, nil
}

// Save writes the tables to a file, replacing it only once fully written
func Save(path string, t *profile.Tables) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tageval-snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads tables from a snapshot file
func Load(path string) (*profile.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Read(f)
}
