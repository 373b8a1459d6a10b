package profile

import "math"

// Frequency is the smoothed per-class event count of one tag
type Frequency struct {
	Pos uint32 `json:"pos"`
	Neg uint32 `json:"neg"`
}

// LogProb is the per-class log2 probability of one tag
type LogProb struct {
	Pos float32 `json:"pos"`
	Neg float32 `json:"neg"`
}

// Diff returns the tag's contribution to a score
func (l LogProb) Diff() float32 {
	return l.Pos - l.Neg
}

// smoothingFloor is the Laplace floor every tag frequency starts from
var smoothingFloor = Frequency{Pos: 1, Neg: 1}

// Model is a two-class multinomial Naive Bayes classifier over tag ids:
// liked (positive) against disliked (negative).
type Model struct {
	freq     []Frequency
	logProb  []LogProb
	totalPos uint32
	totalNeg uint32
	prior    float32
}

// NewModel creates an untrained model sized for n tags
func NewModel(n int) *Model {
	m := &Model{}
	m.Resize(n)
	return m
}

// Resize grows the per-tag tables to n entries. New slots start at the
// smoothing floor with zero log-probabilities, so they score as neutral
// until the next Train. Tables never shrink.
func (m *Model) Resize(n int) {
	for len(m.freq) < n {
		m.freq = append(m.freq, smoothingFloor)
	}
	for len(m.logProb) < n {
		m.logProb = append(m.logProb, LogProb{})
	}
}

// Len returns the number of tags the tables cover
func (m *Model) Len() int {
	return len(m.logProb)
}

// Prior returns the class prior log-odds added to every score
func (m *Model) Prior() float32 {
	return m.prior
}

// Totals returns the per-class event mass, smoothing floors included
func (m *Model) Totals() (pos, neg uint32) {
	return m.totalPos, m.totalNeg
}

// Train rebuilds every table from scratch for a vocabulary of n tags
func (m *Model) Train(n int, posts []ReactedPost) {
	// Reset to the smoothing floor
	m.freq = m.freq[:0]
	m.logProb = m.logProb[:0]
	m.Resize(n)

	for _, p := range posts {
		pos, neg := p.Reaction.Factor()
		for _, id := range p.Tags {
			m.checkBounds(id, len(m.freq))
			m.freq[id].Pos += pos
			m.freq[id].Neg += neg
		}
	}

	m.totalPos, m.totalNeg = 0, 0
	for _, f := range m.freq {
		m.totalPos += f.Pos
		m.totalNeg += f.Neg
	}

	m.prior = 0
	if m.totalPos > 0 && m.totalNeg > 0 {
		total := float64(m.totalPos) + float64(m.totalNeg)
		m.prior = log2(float64(m.totalPos)/total) - log2(float64(m.totalNeg)/total)
	}

	for i, f := range m.freq {
		m.logProb[i] = LogProb{
			Pos: log2(float64(f.Pos) / float64(m.totalPos)),
			Neg: log2(float64(f.Neg) / float64(m.totalNeg)),
		}
	}
}

// Score returns prior + Σ(logPos - logNeg) over known tag ids
func (m *Model) Score(ids []uint32) float32 {
	score := m.prior
	for _, id := range ids {
		score += m.Weight(id)
	}
	return score
}

// Weight returns the score contribution of a single tag
func (m *Model) Weight(id uint32) float32 {
	m.checkBounds(id, len(m.logProb))
	return m.logProb[id].Diff()
}

// Frequency returns the smoothed counts of a tag
func (m *Model) Frequency(id uint32) Frequency {
	m.checkBounds(id, len(m.freq))
	return m.freq[id]
}

func (m *Model) checkBounds(id uint32, size int) {
	if int(id) >= size {
		panic(InvariantViolation{TagID: id, Size: size})
	}
}

func log2(x float64) float32 {
	return float32(math.Log2(x))
}
