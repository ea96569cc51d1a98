package pipeline

import (
	"strings"
	"time"

	"omnigrade/internal/credits"
)

const (
	metaCreditsLoadedAt = "credits.loadedAt"
	metaCreditsOrigins  = "credits.origins"
)

// LoadCredits replaces the stored credit map with the mapping files found
// among paths. Nothing is replaced when no file yields a mapping.
func (s *ProcessingService) LoadCredits(paths []string) (int, []string, error) {
	mappings, used, err := credits.LoadPaths(paths)
	if err != nil {
		return 0, nil, err
	}
	if len(mappings) == 0 {
		s.log.Warn("credits.load.empty", "paths", strings.Join(paths, ","))
		return 0, used, nil
	}
	if err := s.db.ReplaceCredits(mappings); err != nil {
		return 0, nil, err
	}
	_ = s.db.SetMetadata(metaCreditsLoadedAt, time.Now().UTC().Format(time.RFC3339))
	_ = s.db.SetMetadata(metaCreditsOrigins, strings.Join(used, ","))
	s.log.Info("credits.load.ok", "mappings", len(mappings), "files", len(used))
	return len(mappings), used, nil
}

// creditMatcher returns a matcher over the stored credit map, loading the
// configured mapping files first when the map is still empty.
func (s *ProcessingService) creditMatcher() (*credits.Matcher, error) {
	mappings, err := s.db.ListCredits()
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 && len(s.cfg.CreditsMapPaths) > 0 {
		if _, _, err := s.LoadCredits(s.cfg.CreditsMapPaths); err != nil {
			return nil, err
		}
		if mappings, err = s.db.ListCredits(); err != nil {
			return nil, err
		}
	}
	if len(mappings) == 0 {
		return nil, nil
	}
	return credits.NewMatcher(s.cfg, mappings), nil
}
