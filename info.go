package soundbox

import (
	"maps"
	"path/filepath"
	"time"
)

// SoundInfo — неизменяемый снимок метаданных звука на момент запроса.
type SoundInfo struct {
	name     string
	format   string
	kind     string
	length   time.Duration
	position time.Duration
	tags     map[string]string
}

func (i SoundInfo) Name() string   { return i.name }
func (i SoundInfo) Format() string { return i.format }
func (i SoundInfo) Type() string   { return i.kind }

// Length — полная длительность с точностью до миллисекунды.
func (i SoundInfo) Length() time.Duration { return i.length }

// Position — позиция воспроизведения; ноль, если звук не играет.
func (i SoundInfo) Position() time.Duration { return i.position }

// Tags возвращает копию тегов.
func (i SoundInfo) Tags() map[string]string { return maps.Clone(i.tags) }

func (i SoundInfo) Tag(key string) (string, bool) {
	v, ok := i.tags[key]
	return v, ok
}

func snapshot(s *sound, position time.Duration) SoundInfo {
	return SoundInfo{
		name:     s.backendName(),
		format:   s.format.String(),
		kind:     s.kind.String(),
		length:   s.length.Truncate(time.Millisecond),
		position: position.Truncate(time.Millisecond),
		tags:     decodeTags(s.tags),
	}
}

// PlayingSound снимает метаданные звука, играющего на канале id.
func (e *Engine) PlayingSound(id ChannelID) (SoundInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.getChannel(id)
	if !ok || ch.stopped {
		return SoundInfo{}, false
	}
	return snapshot(ch.sound, ch.elapsed(e.dev.SampleRate())), true
}

// SoundInfo снимает метаданные загруженного звука без канала.
func (e *Engine) SoundInfo(name string) (SoundInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sounds[name]
	if !ok {
		return SoundInfo{}, false
	}
	return snapshot(s, 0), true
}

// Inspect читает метаданные файла без аудио-устройства.
func Inspect(path string) (SoundInfo, error) {
	s, err := loadSoundFile(path, filepath.Base(path), ModeStream)
	if err != nil {
		return SoundInfo{}, err
	}
	return snapshot(s, 0), nil
}
