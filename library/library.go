// Package library находит музыкальные файлы по настройкам плеера.
package library

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// AllowedExtensions — расширения, которые попадают в библиотеку.
// Сравнение чувствительно к регистру.
var AllowedExtensions = []string{
	".aif", ".aiff", ".asf", ".wma", ".wmv", ".dls", ".flac", ".fsb",
	".it", ".mid", ".mod", ".mp2", ".mp3", ".ogg", ".asx", ".pls",
	".m3u", ".wax", ".raw", ".s3m", ".wav", ".xm", ".mp4", ".m4a",
}

// Song — файл библиотеки. Name — имя файла без расширения.
type Song struct {
	Path string
	Name string
}

// Stats считает, что было найдено и что пропущено при сканировании.
type Stats struct {
	Songs             int
	InvalidPaths      int
	InvalidExtensions int
}

func Allowed(path string) bool {
	return lo.Contains(AllowedExtensions, filepath.Ext(path))
}

func newSong(path string) Song {
	base := filepath.Base(path)
	return Song{Path: path, Name: strings.TrimSuffix(base, filepath.Ext(base))}
}

// Scan обходит папки и файлы из настроек. Несуществующие пути и
// неподходящие расширения считаются и пропускаются.
func Scan(lib MusicLibrary) ([]Song, Stats) {
	var (
		songs []Song
		stats Stats
	)
	add := func(path string) {
		if !Allowed(path) {
			slog.Debug("skipping file with unsupported extension", "path", path)
			stats.InvalidExtensions++
			return
		}
		songs = append(songs, newSong(path))
	}
	invalid := func(path string, err error) {
		slog.Warn("invalid library path", "path", path, "error", err)
		stats.InvalidPaths++
	}

	for _, dir := range lib.Folders {
		entries, err := os.ReadDir(dir)
		if err != nil {
			invalid(dir, err)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				add(filepath.Join(dir, e.Name()))
			}
		}
	}

	for _, root := range lib.RecursiveFolders {
		if _, err := os.Stat(root); err != nil {
			invalid(root, err)
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				invalid(path, err)
				return nil
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			invalid(root, err)
		}
	}

	for _, path := range lib.IndividualFiles {
		info, err := os.Stat(path)
		if err != nil {
			invalid(path, err)
			continue
		}
		if info.IsDir() {
			invalid(path, fs.ErrInvalid)
			continue
		}
		add(path)
	}

	stats.Songs = len(songs)
	return songs, stats
}
