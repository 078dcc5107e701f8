package library

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func names(songs []Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Name
	}
	return out
}

func TestScanFolder(t *testing.T) {
	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.flac"),
	)

	songs, stats := Scan(MusicLibrary{Folders: []string{dir}})

	if got, want := names(songs), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("songs = %v; want %v", got, want)
	}
	if stats.Songs != 2 || stats.InvalidExtensions != 1 || stats.InvalidPaths != 0 {
		t.Errorf("stats = %+v; want 2 songs, 1 invalid extension", stats)
	}
}

func TestScanSources(t *testing.T) {
	dir := t.TempDir()
	flat := filepath.Join(dir, "flat")
	deep := filepath.Join(dir, "deep")
	touch(t,
		filepath.Join(flat, "one.wav"),
		filepath.Join(flat, "nested", "skipped.mp3"),
		filepath.Join(deep, "two.ogg"),
		filepath.Join(deep, "x", "y", "three.mp3"),
		filepath.Join(deep, "x", "cover.jpg"),
		filepath.Join(dir, "single.MP3"),
		filepath.Join(dir, "four.flac"),
	)

	songs, stats := Scan(MusicLibrary{
		Folders:          []string{flat, filepath.Join(dir, "missing")},
		RecursiveFolders: []string{deep},
		IndividualFiles: []string{
			filepath.Join(dir, "four.flac"),
			filepath.Join(dir, "single.MP3"),
			filepath.Join(dir, "nope.mp3"),
			flat,
		},
	})

	want := []string{"one", "two", "three", "four"}
	if got := names(songs); !reflect.DeepEqual(got, want) {
		t.Errorf("songs = %v; want %v", got, want)
	}
	// Несуществующая папка, nope.mp3 и папка в individualFiles.
	if stats.InvalidPaths != 3 {
		t.Errorf("InvalidPaths = %d; want 3", stats.InvalidPaths)
	}
	// cover.jpg и single.MP3 (регистр важен).
	if stats.InvalidExtensions != 2 {
		t.Errorf("InvalidExtensions = %d; want 2", stats.InvalidExtensions)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	yamlPath := filepath.Join(dir, "config.yaml")

	jsonData := `{
		"musicLibrary": {
			"folders": ["/music"],
			"recusiveFolders": ["/deep"],
			"individualFiles": ["/a.mp3"]
		}
	}`
	yamlData := "musicLibrary:\n  folders: [/music]\n  recusiveFolders: [/deep]\n  individualFiles: [/a.mp3]\nplayer:\n  volumeDb: -6\n  stream: false\n  watch: true\n  shuffle: false\n"
	if err := os.WriteFile(jsonPath, []byte(jsonData), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}

	wantLib := MusicLibrary{
		Folders:          []string{"/music"},
		RecursiveFolders: []string{"/deep"},
		IndividualFiles:  []string{"/a.mp3"},
	}

	cfg, err := LoadConfig(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.MusicLibrary, wantLib) {
		t.Errorf("json library = %+v", cfg.MusicLibrary)
	}
	if !cfg.Player.Stream || !cfg.Player.Shuffle {
		t.Errorf("stream and shuffle should default to true: %+v", cfg.Player)
	}

	cfg, err = LoadConfig(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.MusicLibrary, wantLib) {
		t.Errorf("yaml library = %+v", cfg.MusicLibrary)
	}
	want := PlayerConfig{VolumeDB: -6, Stream: false, Watch: true, Shuffle: false}
	if cfg.Player != want {
		t.Errorf("player = %+v; want %+v", cfg.Player, want)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing config should fail")
	}
}

func startWatcher(t *testing.T, dir string) chan Song {
	t.Helper()
	w, err := NewWatcher(MusicLibrary{Folders: []string{dir}})
	if err != nil {
		t.Fatal(err)
	}
	w.Quiet = 50 * time.Millisecond
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	found := make(chan Song, 4)
	go w.Run(ctx, func(s Song) { found <- s })
	return found
}

func TestWatcherReportsNewSongs(t *testing.T) {
	dir := t.TempDir()
	found := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-found:
		if s.Name != "new" {
			t.Errorf("song = %+v; want new", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the new song")
	}
}

// Копирование: сначала пустой файл, данные приходят позже.
func TestWatcherWaitsForWrite(t *testing.T) {
	dir := t.TempDir()
	found := startWatcher(t, dir)

	path := filepath.Join(dir, "copy.flac")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	select {
	case s := <-found:
		t.Fatalf("empty file reported as %+v", s)
	case <-time.After(300 * time.Millisecond):
	}

	if _, err := f.Write([]byte("audio data")); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-found:
		if s.Path != path {
			t.Errorf("song = %+v; want %s", s, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the file after it was written")
	}

	select {
	case s := <-found:
		t.Errorf("song reported twice: %+v", s)
	case <-time.After(300 * time.Millisecond):
	}
}
