package profile

import "context"

// ModelTable is the persisted form of a Model
type ModelTable struct {
	Frequencies []Frequency `json:"frequencies"`
	LogProbs    []LogProb   `json:"log_probs"`
	TotalPos    uint32      `json:"total_pos"`
	TotalNeg    uint32      `json:"total_neg"`
	Prior       float32     `json:"prior"`
}

// Tables is everything a profile persists, apart from credentials
type Tables struct {
	Tags      map[string]uint32 `json:"tags"`
	Reactions []ReactedPost     `json:"reactions"`
	Model     ModelTable        `json:"model"`
}

// EmptyTables returns the tables of a fresh profile
func EmptyTables() *Tables {
	return &Tables{
		Tags:      map[string]uint32{},
		Reactions: []ReactedPost{},
		Model: ModelTable{
			Frequencies: []Frequency{},
			LogProbs:    []LogProb{},
		},
	}
}

// Store persists profile tables
type Store interface {
	LoadTables(ctx context.Context) (*Tables, error)
	SaveTables(ctx context.Context, t *Tables) error
}

// table copies the model into its persisted form
func (m *Model) table() ModelTable {
	return ModelTable{
		Frequencies: append([]Frequency{}, m.freq...),
		LogProbs:    append([]LogProb{}, m.logProb...),
		TotalPos:    m.totalPos,
		TotalNeg:    m.totalNeg,
		Prior:       m.prior,
	}
}

// modelFromTable restores a model sized for a vocabulary of n tags
func modelFromTable(t ModelTable, n int) (*Model, error) {
	if len(t.Frequencies) != len(t.LogProbs) {
		return nil, corruptf("model has %d frequency rows but %d probability rows",
			len(t.Frequencies), len(t.LogProbs))
	}
	if len(t.LogProbs) != n {
		return nil, corruptf("model covers %d tags, vocabulary has %d", len(t.LogProbs), n)
	}

	return &Model{
		freq:     append([]Frequency{}, t.Frequencies...),
		logProb:  append([]LogProb{}, t.LogProbs...),
		totalPos: t.TotalPos,
		totalNeg: t.TotalNeg,
		prior:    t.Prior,
	}, nil
}

// reactionsFromTable rebuilds the store, checking ids against a vocabulary
// of n tags
func reactionsFromTable(posts []ReactedPost, n int) (*ReactionStore, error) {
	s := NewReactionStore()
	for _, p := range posts {
		if s.Contains(p.PostID) {
			return nil, corruptf("post %d stored twice", p.PostID)
		}
		for _, id := range p.Tags {
			if int(id) >= n {
				return nil, corruptf("post %d references unknown tag id %d", p.PostID, id)
			}
		}
		p.Tags = append([]uint32{}, p.Tags...)
		s.Push(p)
	}
	return s, nil
}
