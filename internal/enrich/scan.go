package enrich

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/shared"
)

// ScanTracks walks dir recursively and returns a Track for every MP3 file.
// Artist and title are parsed from an "Artist - Title.mp3" filename; files
// that don't follow the convention use the bare filename as the title so they
// still show up in listings, even though lookups for them will likely miss.
func ScanTracks(dir string) ([]models.Track, error) {
	var tracks []models.Track

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}
		tracks = append(tracks, trackFromPath(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan %s: %v", shared.ErrInvalidInput, dir, err)
	}

	return tracks, nil
}

func trackFromPath(path string) models.Track {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	artist, title, found := strings.Cut(name, " - ")
	if !found {
		return models.Track{Path: path, Title: strings.TrimSpace(name)}
	}

	return models.Track{
		Path:   path,
		Artist: strings.TrimSpace(artist),
		Title:  strings.TrimSpace(title),
	}
}
