package soundbox

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	gowav "github.com/youpy/go-wav"
)

// go test -v -race ./...

// fakeVoice записывает вызовы вместо вывода звука.
type fakeVoice struct {
	src      io.Reader
	playing  bool
	finished bool
	volume   float64
	calls    []string
}

func (v *fakeVoice) Play() {
	v.calls = append(v.calls, "play")
	v.playing = !v.finished
}

func (v *fakeVoice) Pause() {
	v.calls = append(v.calls, "pause")
	v.playing = false
}

func (v *fakeVoice) IsPlaying() bool { return v.playing }

func (v *fakeVoice) SetVolume(volume float64) {
	v.calls = append(v.calls, "volume")
	v.volume = volume
}

func (v *fakeVoice) BufferedSize() int { return 0 }

// finish имитирует конец трека.
func (v *fakeVoice) finish() {
	v.finished = true
	v.playing = false
}

type fakeDevice struct {
	voices []*fakeVoice
	err    error
	closed bool
}

func (d *fakeDevice) SampleRate() int { return 44100 }

func (d *fakeDevice) NewVoice(r io.Reader) voice {
	v := &fakeVoice{src: r}
	d.voices = append(d.voices, v)
	return v
}

func (d *fakeDevice) Update() error { return d.err }

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	e := newEngine(dev, opts)
	t.Cleanup(func() { e.Close() })
	return e, dev
}

// writeWAV создаёт 16-битный стерео WAV из frames сэмплов.
func writeWAV(t *testing.T, dir, name string, frames int, rate uint32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := gowav.NewWriter(f, uint32(frames), 2, rate, 16)
	samples := make([]gowav.Sample, frames)
	for i := range samples {
		v := (i % 200) * 100
		samples[i].Values = [2]int{v, -v}
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSoundDuplicate(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)

	res, err := e.LoadSound(path, "tone", 0)
	if err != nil || res != LoadCreated {
		t.Fatalf("first LoadSound() = %v, %v; want created", res, err)
	}
	original := e.sounds["tone"]

	res, err = e.LoadSound(path, "tone", ModeStream)
	if err != nil || res != LoadAlreadyExists {
		t.Fatalf("second LoadSound() = %v, %v; want already exists", res, err)
	}
	if e.sounds["tone"] != original {
		t.Error("duplicate load replaced the original sound")
	}
	if original.mode != 0 {
		t.Errorf("mode = %v; want original mode 0", original.mode)
	}
}

func TestLoadSoundFailures(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(txt, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(broken, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"wrong extension", txt, ErrUnsupportedFormat},
		{"not decodable type", filepath.Join(dir, "song.mid"), ErrUnsupportedFormat},
		{"missing file", filepath.Join(dir, "missing.wav"), os.ErrNotExist},
		{"broken content", broken, nil},
	}

	e, _ := newTestEngine(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.LoadSound(tt.path, tt.name, 0)
			if res != LoadFailed {
				t.Errorf("LoadSound() = %v; want failed", res)
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v; want %v", err, tt.wantErr)
			}
			if _, ok := e.sounds[tt.name]; ok {
				t.Error("failed sound must not be registered")
			}
		})
	}
}

func TestPlaySoundMissingName(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	first, err := e.PlaySound("nothing-here.wav", Vec3{}, 0)
	if !errors.Is(err, ErrSoundNotFound) {
		t.Fatalf("PlaySound() error = %v; want ErrSoundNotFound", err)
	}
	second, _ := e.PlaySound("nothing-here.wav", Vec3{}, 0)
	if second <= first {
		t.Errorf("channel ids not increasing: %d then %d", first, second)
	}
	if e.IsPlaying(first) || e.IsPlaying(second) {
		t.Error("failed channels must not be playing")
	}
}

func TestPlaySoundImplicitLoad(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)

	id, err := e.PlaySound(path, Vec3{}, 0)
	if err != nil {
		t.Fatalf("PlaySound() error = %v", err)
	}
	if _, ok := e.sounds[path]; !ok {
		t.Error("sound should be loaded by its path")
	}
	if !e.IsPlaying(id) {
		t.Error("channel should be playing")
	}
	if len(dev.voices) != 1 {
		t.Fatalf("voices = %d; want 1", len(dev.voices))
	}
}

// Громкость и позиция выставляются до старта, чтобы не было щелчка.
func TestPlaySoundAttributesBeforePlay(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)
	if _, err := e.LoadSound(path, "tone", Mode2D); err != nil {
		t.Fatal(err)
	}

	if _, err := e.PlaySound("tone", Vec3{}, -6); err != nil {
		t.Fatal(err)
	}
	v := dev.voices[0]
	if len(v.calls) < 2 || v.calls[0] != "volume" || v.calls[len(v.calls)-1] != "play" {
		t.Errorf("calls = %v; want volume before play", v.calls)
	}
	if want := DBToVolume(-6); v.volume != want {
		t.Errorf("volume = %f; want %f", v.volume, want)
	}
}

func TestLoadAndPlaySound(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	dir := t.TempDir()
	path := writeWAV(t, dir, "tone.wav", 4410, 44100)

	id, err := e.LoadAndPlaySound(path, "tone", ModeStream, Vec3{}, 0)
	if err != nil {
		t.Fatalf("LoadAndPlaySound() error = %v", err)
	}
	if !e.IsPlaying(id) {
		t.Error("channel should be playing")
	}

	failed, err := e.LoadAndPlaySound(filepath.Join(dir, "missing.wav"), "missing", 0, Vec3{}, 0)
	if err == nil {
		t.Fatal("expected load error")
	}
	if errors.Is(err, ErrSoundNotFound) {
		t.Error("load failure must differ from ErrSoundNotFound")
	}
	if failed <= id {
		t.Errorf("id %d not greater than %d", failed, id)
	}
}

func TestUpdateEvictsStoppedChannels(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)
	if _, err := e.LoadSound(path, "tone", 0); err != nil {
		t.Fatal(err)
	}

	finished, _ := e.PlaySound("tone", Vec3{}, 0)
	paused, _ := e.PlaySound("tone", Vec3{}, 0)
	stopped, _ := e.PlaySound("tone", Vec3{}, 0)

	dev.voices[0].finish()
	e.SetChannelPaused(paused, true)
	e.StopChannel(stopped)

	if err := e.Update(); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, ok := e.channels[finished]; ok {
		t.Error("finished channel should be evicted")
	}
	if _, ok := e.channels[stopped]; ok {
		t.Error("stopped channel should be evicted")
	}
	if !e.IsPlaying(paused) {
		t.Error("paused channel should survive Update")
	}

	// Операции над удалёнными каналами молча ничего не делают.
	e.StopChannel(finished)
	e.SetChannelVolume(finished, -3)
	e.SetChannel3dPosition(finished, Vec3{X: 1})
	if e.IsPlaying(finished) {
		t.Error("evicted channel reported as playing")
	}
}

func TestUpdateReportsDeviceError(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	dev.err = errors.New("device lost")
	if err := e.Update(); !errors.Is(err, dev.err) {
		t.Errorf("Update() = %v; want %v", err, dev.err)
	}
}

func TestTooManyChannels(t *testing.T) {
	e, _ := newTestEngine(t, Options{MaxChannels: 1})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)
	if _, err := e.LoadSound(path, "tone", 0); err != nil {
		t.Fatal(err)
	}

	if _, err := e.PlaySound("tone", Vec3{}, 0); err != nil {
		t.Fatal(err)
	}
	id, err := e.PlaySound("tone", Vec3{}, 0)
	if !errors.Is(err, ErrTooManyChannels) {
		t.Errorf("PlaySound() error = %v; want ErrTooManyChannels", err)
	}
	if e.IsPlaying(id) {
		t.Error("rejected channel must not play")
	}
}

func TestSoundInfo(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)
	if _, err := e.LoadSound(path, "tone", 0); err != nil {
		t.Fatal(err)
	}

	info, ok := e.SoundInfo("tone")
	if !ok {
		t.Fatal("SoundInfo() not found")
	}
	if info.Name() != "tone.wav" {
		t.Errorf("Name() = %q; want tone.wav", info.Name())
	}
	if info.Type() != "wav" || info.Format() != "pcm16" {
		t.Errorf("Type/Format = %s/%s; want wav/pcm16", info.Type(), info.Format())
	}
	if info.Length() != 100*time.Millisecond {
		t.Errorf("Length() = %v; want 100ms", info.Length())
	}
	if info.Position() != 0 {
		t.Errorf("Position() = %v; want 0", info.Position())
	}

	id, _ := e.PlaySound("tone", Vec3{}, 0)
	if _, ok := e.PlayingSound(id); !ok {
		t.Error("PlayingSound() should find a live channel")
	}
	if _, ok := e.PlayingSound(id + 100); ok {
		t.Error("PlayingSound() found an unknown channel")
	}
}

func TestUnloadAndClose(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	path := writeWAV(t, t.TempDir(), "tone.wav", 4410, 44100)
	if _, err := e.LoadSound(path, "tone", 0); err != nil {
		t.Fatal(err)
	}
	id, _ := e.PlaySound("tone", Vec3{}, 0)

	e.UnloadSound("tone")
	e.UnloadSound("tone")
	if _, ok := e.SoundInfo("tone"); ok {
		t.Error("sound should be unloaded")
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !dev.closed {
		t.Error("device should be closed")
	}
	if e.IsPlaying(id) {
		t.Error("channels should be stopped on Close")
	}
	if _, err := e.LoadSound(path, "tone", 0); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("LoadSound() after Close = %v; want ErrEngineClosed", err)
	}
}

func TestChannelSourceRead(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "tone.wav", 441, 22050)
	s, err := loadSoundFile(path, "tone", ModeLoop)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := s.open()
	if err != nil {
		t.Fatal(err)
	}
	stream, format, err := getDecoder(s.kind, rs)
	if err != nil {
		t.Fatal(err)
	}

	// Ресэмплинг 22050 → 44100 с зацикливанием: данные не кончаются.
	src := newChannelSource(stream, format, 44100, true)
	buf := make([]byte, 4*2000)
	n, err := io.ReadFull(src, buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read() = %d, %v; want %d bytes", n, err, len(buf))
	}

	src.Close()
	if n, err := src.Read(buf); n != 0 || err != io.EOF {
		t.Errorf("Read() after Close = %d, %v; want 0, EOF", n, err)
	}
}
