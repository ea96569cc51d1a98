package credits

import (
	"sort"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/util"
)

const (
	SourceCode  = "code"
	SourceName  = "name"
	SourceFuzzy = "fuzzy"
)

type Candidate struct {
	NameKey string
	Score   float64
}

type Matcher struct {
	threshold float64
	gap       float64
	index     *Index
}

func NewMatcher(cfg config.Config, mappings []internal.CreditMapping) *Matcher {
	return &Matcher{
		threshold: cfg.CreditsFuzzyThreshold,
		gap:       cfg.CreditsFuzzyGap,
		index:     BuildIndex(mappings),
	}
}

// Lookup resolves credits for one record: exact class code, then exact
// name, then the best fuzzy name when it clears both the score threshold and
// the gap to the runner-up.
func (m *Matcher) Lookup(rec internal.CourseRecord) (float64, string, bool) {
	if code := util.NormalizeCode(rec.ClassCode); code != "" {
		if hit, ok := m.index.ByCode[code]; ok {
			return hit.Credits, SourceCode, true
		}
	}

	key := NameKey(rec.CourseName)
	if key == "" {
		return 0, "", false
	}
	if hit, ok := m.index.ByName[key]; ok {
		return hit.Credits, SourceName, true
	}

	candidates := m.rankCandidates(key)
	if len(candidates) == 0 {
		return 0, "", false
	}
	top := candidates[0]
	gap := top.Score
	if len(candidates) > 1 {
		gap = top.Score - candidates[1].Score
	}
	if top.Score >= m.threshold && gap >= m.gap {
		return m.index.ByName[top.NameKey].Credits, SourceFuzzy, true
	}
	return 0, "", false
}

// Autofill returns a copy of records with credits filled where they are
// absent or not positive. Records that already carry credits keep them.
func (m *Matcher) Autofill(records []internal.CourseRecord) ([]internal.CourseRecord, int) {
	out := make([]internal.CourseRecord, 0, len(records))
	filled := 0
	for _, rec := range records {
		if rec.Credits == nil || *rec.Credits <= 0 {
			if credits, source, ok := m.Lookup(rec); ok {
				rec.Credits = util.FloatPtr(credits)
				rec.CreditsSource = source
				filled++
			}
		}
		out = append(out, rec)
	}
	return out, filled
}

func (m *Matcher) rankCandidates(query string) []Candidate {
	keys := map[string]struct{}{}
	for _, token := range util.Tokenize(query) {
		for key := range m.index.TokenToNames[token] {
			keys[key] = struct{}{}
		}
	}

	out := make([]Candidate, 0, len(keys))
	for key := range keys {
		out = append(out, Candidate{NameKey: key, Score: util.DiceCoefficient(query, key)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NameKey < out[j].NameKey
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
