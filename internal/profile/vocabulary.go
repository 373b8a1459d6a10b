package profile

// Vocabulary maps tag strings to dense ids 0..Len()-1.
// It only grows; ids are never reused or reassigned.
type Vocabulary struct {
	ids   map[string]uint32
	names []string // reverse index, names[id] == tag
}

// NewVocabulary creates an empty vocabulary
func NewVocabulary() *Vocabulary {
	return &Vocabulary{ids: make(map[string]uint32)}
}

// vocabularyFromMap rebuilds a vocabulary from persisted tag ids.
// The ids must be exactly 0..len(m)-1.
func vocabularyFromMap(m map[string]uint32) (*Vocabulary, error) {
	v := &Vocabulary{
		ids:   make(map[string]uint32, len(m)),
		names: make([]string, len(m)),
	}
	seen := make([]bool, len(m))

	for tag, id := range m {
		if int(id) >= len(m) {
			return nil, corruptf("tag %q has id %d outside 0..%d", tag, id, len(m)-1)
		}
		if seen[id] {
			return nil, corruptf("tag id %d assigned twice", id)
		}
		seen[id] = true
		v.ids[tag] = id
		v.names[id] = tag
	}

	return v, nil
}

// GetOrCreate returns the id of tag, assigning the next id on first sighting
func (v *Vocabulary) GetOrCreate(tag string) uint32 {
	if id, ok := v.ids[tag]; ok {
		return id
	}
	id := uint32(len(v.names))
	v.ids[tag] = id
	v.names = append(v.names, tag)
	return id
}

// Lookup returns the id of a known tag without modifying the vocabulary
func (v *Vocabulary) Lookup(tag string) (uint32, bool) {
	id, ok := v.ids[tag]
	return id, ok
}

// Name returns the tag with the given id
func (v *Vocabulary) Name(id uint32) (string, bool) {
	if int(id) >= len(v.names) {
		return "", false
	}
	return v.names[id], true
}

// Len returns the number of distinct tags
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Map returns a copy of the tag to id mapping
func (v *Vocabulary) Map() map[string]uint32 {
	m := make(map[string]uint32, len(v.ids))
	for tag, id := range v.ids {
		m[tag] = id
	}
	return m
}

// lookupAll maps tags to ids, silently dropping unknown tags
func (v *Vocabulary) lookupAll(tags []string) []uint32 {
	ids := make([]uint32, 0, len(tags))
	for _, tag := range tags {
		if id, ok := v.ids[tag]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
