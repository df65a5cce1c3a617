package pg

import "github.com/animeverse-dev/animeverse/internal/domain"

// Catalog existence checks. The catalog component owns these tables; the
// discussion core only needs to know whether a surface instance exists.

func (s *Storage) AnimeExists(id domain.SurfaceId) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM animes WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

func (s *Storage) EpisodeExists(id domain.SurfaceId) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM episodes WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// SurfaceExists resolves existence for any surface kind. The staff channel
// is a singleton and always exists.
func (s *Storage) SurfaceExists(surface domain.Surface) (bool, error) {
	switch surface.Kind {
	case domain.SurfaceAnime:
		return s.AnimeExists(surface.Id)
	case domain.SurfaceEpisode:
		return s.EpisodeExists(surface.Id)
	case domain.SurfaceStaff:
		return surface.Id == domain.StaffSurfaceId, nil
	}
	return false, nil
}
