package soundbox

import (
	"fmt"
	"log/slog"
)

// LoadSound загружает звук из файла path под именем name.
// Повторная загрузка того же имени ничего не меняет и возвращает LoadAlreadyExists.
func (e *Engine) LoadSound(path, name string, mode Mode) (LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return LoadFailed, ErrEngineClosed
	}
	return e.loadLocked(path, name, mode)
}

// Load — загрузка с режимом по умолчанию, где имя служит и путём к файлу.
func (e *Engine) Load(name string) (LoadResult, error) {
	return e.LoadSound(name, name, 0)
}

func (e *Engine) loadLocked(path, name string, mode Mode) (LoadResult, error) {
	if _, ok := e.sounds[name]; ok {
		slog.Warn("sound already loaded", "name", name)
		return LoadAlreadyExists, nil
	}
	s, err := loadSoundFile(path, name, mode)
	if err != nil {
		slog.Error("failed to load sound", "path", path, "error", err)
		return LoadFailed, fmt.Errorf("load %s: %w", path, err)
	}
	e.sounds[name] = s
	return LoadCreated, nil
}

// UnloadSound освобождает звук и убирает его из реестра.
func (e *Engine) UnloadSound(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sounds[name]
	if !ok {
		return
	}
	s.release()
	delete(e.sounds, name)
}

// PlaySound запускает загруженный звук на новом канале. Если имя ещё не
// загружено, звук загружается по имени как по пути.
// Идентификатор выделяется всегда, даже если воспроизведение не удалось.
func (e *Engine) PlaySound(name string, pos Vec3, volumeDB float64) (ChannelID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.allocChannelID()
	if e.closed {
		return id, ErrEngineClosed
	}

	s, ok := e.sounds[name]
	if !ok {
		if _, err := e.loadLocked(name, name, 0); err != nil {
			return id, fmt.Errorf("%w: %s: %w", ErrSoundNotFound, name, err)
		}
		s = e.sounds[name]
	}
	return id, e.startChannel(id, s, pos, volumeDB)
}

// LoadAndPlaySound загружает звук и сразу запускает его.
// Ошибка загрузки означает, что канал так и не был создан;
// ErrSoundNotFound означает, что звук загружен, но недоступен.
func (e *Engine) LoadAndPlaySound(path, name string, mode Mode, pos Vec3, volumeDB float64) (ChannelID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.allocChannelID()
	if e.closed {
		return id, ErrEngineClosed
	}

	if _, err := e.loadLocked(path, name, mode); err != nil {
		return id, err
	}
	s, ok := e.sounds[name]
	if !ok {
		return id, fmt.Errorf("%w: %s", ErrSoundNotFound, name)
	}
	return id, e.startChannel(id, s, pos, volumeDB)
}

// startChannel создаёт канал на паузе, выставляет позицию и громкость
// и только потом запускает его. Вызывается под e.mu.
func (e *Engine) startChannel(id ChannelID, s *sound, pos Vec3, volumeDB float64) error {
	if e.liveChannels() >= e.maxChannels {
		return ErrTooManyChannels
	}

	// Шаг 1: Открываем данные звука.
	rs, err := s.open()
	if err != nil {
		return err
	}

	// Шаг 2: Инициализируем нужный декодер.
	stream, format, err := getDecoder(s.kind, rs)
	if err != nil {
		return err
	}

	// Шаг 3: Создаём канал на паузе.
	src := newChannelSource(stream, format, e.dev.SampleRate(), s.mode.looping())
	ch := &channel{
		id:     id,
		sound:  s,
		voice:  e.dev.NewVoice(src),
		src:    src,
		pos:    pos,
		volume: DBToVolume(volumeDB),
	}

	// Шаг 4: Выставляем атрибуты до того, как звук станет слышен.
	ch.apply(e.listener)
	e.channels[id] = ch

	ch.voice.Play()
	return nil
}

func (e *Engine) liveChannels() int {
	n := 0
	for _, ch := range e.channels {
		if ch.playing() {
			n++
		}
	}
	return n
}
