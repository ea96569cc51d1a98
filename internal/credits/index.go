// Package credits fills course credits from mapping files keyed by class
// code or course name.
package credits

import (
	"omnigrade/internal"
	"omnigrade/internal/courses"
	"omnigrade/internal/util"
)

type Index struct {
	ByCode       map[string]internal.CreditMapping
	ByName       map[string]internal.CreditMapping
	TokenToNames map[string]map[string]struct{}
}

// NameKey is the lookup form of a course name: cleaned, lower-cased and
// stripped of accents.
func NameKey(name string) string {
	return util.FoldAccents(courses.CleanCourseName(name))
}

// BuildIndex indexes mappings by code and name. A later mapping for the same
// code or name replaces an earlier one, so later files override earlier ones.
func BuildIndex(mappings []internal.CreditMapping) *Index {
	idx := &Index{
		ByCode:       map[string]internal.CreditMapping{},
		ByName:       map[string]internal.CreditMapping{},
		TokenToNames: map[string]map[string]struct{}{},
	}

	for _, m := range mappings {
		if m.Credits <= 0 {
			continue
		}
		if code := util.NormalizeCode(m.ClassCode); code != "" {
			idx.ByCode[code] = m
		}

		key := m.NameKey
		if key == "" {
			key = NameKey(m.Name)
		}
		if key == "" {
			continue
		}
		idx.ByName[key] = m
		for _, token := range util.Tokenize(key) {
			if _, ok := idx.TokenToNames[token]; !ok {
				idx.TokenToNames[token] = map[string]struct{}{}
			}
			idx.TokenToNames[token][key] = struct{}{}
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.ByCode) + len(idx.ByName)
}
