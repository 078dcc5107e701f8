package soundbox

import (
	"time"
)

// channel — активное воспроизведение звука. Несколько каналов могут
// ссылаться на один звук.
type channel struct {
	id     ChannelID
	sound  *sound
	voice  voice
	src    *channelSource
	pos    Vec3
	volume float64 // Линейная громкость до учёта расстояния.

	// paused не даёт Update удалить канал, пока он стоит на паузе.
	paused  bool
	stopped bool
}

// apply пересчитывает громкость и панораму канала для слушателя.
func (c *channel) apply(l listener) {
	gain, pan := 1.0, 0.0
	if c.sound.mode.spatial() {
		gain, pan = l.spatialize(c.pos)
	}
	// Устройство не усиливает сигнал: всё выше 0 dB обрезается до единичного усиления.
	c.voice.SetVolume(max(0, min(1, c.volume*gain)))
	c.src.setPan(pan)
}

func (c *channel) playing() bool {
	if c.stopped {
		return false
	}
	return c.paused || c.voice.IsPlaying()
}

func (c *channel) stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	c.voice.Pause()
	c.src.Close()
}

// elapsed — позиция, которую уже слышно: прочитанное из декодера
// минус то, что ещё лежит в буфере устройства.
func (c *channel) elapsed(deviceRate int) time.Duration {
	if c.stopped {
		return 0
	}
	buffered := time.Duration(0)
	if deviceRate > 0 {
		frames := c.voice.BufferedSize() / bytesPerFrame
		buffered = time.Duration(frames) * time.Second / time.Duration(deviceRate)
	}
	return max(0, c.src.position()-buffered)
}

// StopChannel останавливает канал. Неизвестный id игнорируется.
func (e *Engine) StopChannel(id ChannelID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.getChannel(id); ok {
		ch.stop()
	}
}

// StopAllChannels мгновенно останавливает все звучащие каналы.
func (e *Engine) StopAllChannels() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.channels {
		ch.stop()
	}
}

// SetChannel3dPosition перемещает источник звука канала.
func (e *Engine) SetChannel3dPosition(id ChannelID, pos Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.getChannel(id)
	if !ok {
		return
	}
	ch.pos = pos
	ch.apply(e.listener)
}

// SetChannelVolume динамически меняет громкость канала (в децибелах).
func (e *Engine) SetChannelVolume(id ChannelID, volumeDB float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.getChannel(id)
	if !ok {
		return
	}
	ch.volume = DBToVolume(volumeDB)
	ch.apply(e.listener)
}

// SetChannelPaused приостанавливает или продолжает воспроизведение канала.
func (e *Engine) SetChannelPaused(id ChannelID, paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.getChannel(id)
	if !ok || !ch.playing() || ch.paused == paused {
		return
	}
	ch.paused = paused
	if paused {
		ch.voice.Pause()
	} else {
		ch.voice.Play()
	}
}

// IsPlaying сообщает, жив ли канал. Канал на паузе считается играющим.
func (e *Engine) IsPlaying(id ChannelID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.getChannel(id)
	return ok && ch.playing()
}

// Set3dListenerAndOrientation задаёт положение и ориентацию единственного
// слушателя и пересчитывает все 3D каналы.
func (e *Engine) Set3dListenerAndOrientation(pos, look, up Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = listener{pos: pos, look: look, up: up}
	for _, ch := range e.channels {
		if !ch.stopped && ch.sound.mode.spatial() {
			ch.apply(e.listener)
		}
	}
}
