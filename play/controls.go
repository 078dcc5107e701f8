package play

import (
	"log/slog"

	"github.com/Roman77St/soundbox/input"
	"github.com/Roman77St/soundbox/library"
)

// Next переключает на следующую песню, после последней — на первую.
func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.songs) == 0 {
		return
	}
	p.paused = false
	p.switchTo((p.index + 1) % len(p.songs))
}

// Previous переключает на предыдущую песню, перед первой — последняя.
func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.songs) == 0 {
		return
	}
	p.paused = false
	p.switchTo((p.index - 1 + len(p.songs)) % len(p.songs))
}

// Shuffle перемешивает библиотеку. Индекс остаётся прежним и теперь
// указывает на другую песню, которая сразу начинает играть.
func (p *Player) Shuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.songs) == 0 {
		return
	}
	p.stopCurrent()
	p.shuffleSongs()
	p.paused = false
	p.playCurrent()
}

// shuffleSongs переставляет песни на месте. Вызывается под mu.
func (p *Player) shuffleSongs() {
	p.shuffle(len(p.songs), func(i, j int) {
		p.songs[i], p.songs[j] = p.songs[j], p.songs[i]
	})
}

// TogglePause останавливает текущую песню. Повторное нажатие
// запускает её с начала: продолжения с места нет.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.songs) == 0 {
		return
	}
	if p.paused {
		p.paused = false
		p.playCurrent()
		return
	}
	p.paused = true
	p.stopCurrent()
}

// Quit останавливает все каналы и выгружает текущую песню.
func (p *Player) Quit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.StopAllChannels()
	if p.current != nil {
		p.engine.UnloadSound(p.current.Path)
		p.current = nil
	}
}

// Current возвращает играющую песню.
func (p *Player) Current() (LoadedSong, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return LoadedSong{}, false
	}
	return *p.current, true
}

func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Songs возвращает копию библиотеки в текущем порядке.
func (p *Player) Songs() []library.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]library.Song(nil), p.songs...)
}

// DefaultBindings — клавиши по умолчанию.
var DefaultBindings = map[input.Key]input.Action{
	'N':         input.Next,
	'B':         input.Previous,
	'P':         input.TogglePause,
	'S':         input.Shuffle,
	'Q':         input.Quit,
	input.CtrlC: input.Quit,
}

// BindKeys привязывает клавиши к действиям плеера.
func BindKeys(m *input.Manager, p *Player, bindings map[input.Key]input.Action) {
	for key, a := range bindings {
		if !m.RegisterKeyToAction(key, a) {
			slog.Warn("key already bound", "key", string(rune(key)), "action", a)
		}
	}
	for _, a := range []input.Action{input.Next, input.Previous, input.TogglePause, input.Shuffle, input.Quit} {
		m.SubscribeToKeypress(func() { p.Dispatch(a) }, a)
	}
}
