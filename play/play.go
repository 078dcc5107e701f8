// Package play — цикл терминального плеера: библиотека, текущая песня
// и переходы между песнями.
package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/Roman77St/soundbox"
	"github.com/Roman77St/soundbox/input"
	"github.com/Roman77St/soundbox/library"
	"github.com/samber/lo"
)

var (
	ErrEmptyLibrary = errors.New("music library is empty")
	ErrNoPlayable   = errors.New("no song in the library could be played")
)

// Options содержит настройки плеера.
type Options struct {
	Mode     soundbox.Mode // Режим загрузки песен.
	VolumeDB float64       // Громкость в децибелах.
	Tick     time.Duration // Период опроса движка, по умолчанию 10 мс.
	Redraw   time.Duration // Период перерисовки, по умолчанию 1 с.
	Out      io.Writer     // Куда рисовать статус, по умолчанию stdout.
	Shuffle  bool          // Перемешать библиотеку перед первой песней.
}

// Player переключает песни библиотеки. mu сериализует переходы,
// вызванные клавишами, с проверкой окончания трека в главном цикле.
type Player struct {
	mu sync.Mutex

	engine Engine
	opts   Options

	songs   []library.Song
	index   int
	current *LoadedSong
	paused  bool
	failed  int // Сколько запусков подряд закончились ошибкой.

	actions chan input.Action
	shuffle func(n int, swap func(i, j int))

	lines int // Сколько строк занимает последний вывод статуса.
}

func New(engine Engine, opts Options) *Player {
	if opts.Tick <= 0 {
		opts.Tick = 10 * time.Millisecond
	}
	if opts.Redraw <= 0 {
		opts.Redraw = time.Second
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Player{
		engine:  engine,
		opts:    opts,
		actions: make(chan input.Action, 16),
		shuffle: rand.Shuffle,
	}
}

// LoadLibrary проверяет каждую песню загрузкой в движок, отбрасывает
// те, что не загрузились или уже есть в библиотеке, и выгружает
// остальные: при воспроизведении песни загружаются заново.
func (p *Player) LoadLibrary(songs []library.Song) LoadStats {
	var stats LoadStats
	var valid []library.Song
	var created []string

	p.mu.Lock()
	known := slices.Clone(p.songs)
	p.mu.Unlock()

	for _, s := range songs {
		if lo.ContainsBy(known, func(k library.Song) bool { return k.Path == s.Path }) {
			slog.Warn("skipping duplicate song", "path", s.Path)
			stats.Duplicates++
			continue
		}
		res, err := p.engine.LoadSound(s.Path, s.Path, p.opts.Mode)
		switch res {
		case soundbox.LoadCreated:
			stats.Created++
			created = append(created, s.Path)
			valid = append(valid, s)
		case soundbox.LoadAlreadyExists:
			slog.Warn("skipping duplicate song", "path", s.Path)
			stats.Duplicates++
		default:
			slog.Error("skipping song", "path", s.Path, "error", err)
			stats.Failed++
		}
	}
	for _, name := range created {
		p.engine.UnloadSound(name)
	}

	p.mu.Lock()
	p.songs = append(p.songs, valid...)
	p.mu.Unlock()

	slog.Info("library loaded",
		"songs", len(valid), "created", stats.Created,
		"duplicates", stats.Duplicates, "failed", stats.Failed)
	return stats
}

// AddSong добавляет в конец библиотеки песню, найденную после старта.
// Песня, которая уже есть в библиотеке, не добавляется повторно.
func (p *Player) AddSong(song library.Song) bool {
	p.mu.Lock()
	known := p.has(song.Path)
	p.mu.Unlock()
	if known {
		return false
	}

	res, err := p.engine.LoadSound(song.Path, song.Path, p.opts.Mode)
	if res != soundbox.LoadCreated {
		slog.Warn("new song not added", "path", song.Path, "result", res, "error", err)
		return false
	}
	p.engine.UnloadSound(song.Path)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.has(song.Path) {
		return false
	}
	p.songs = append(p.songs, song)
	slog.Info("song added", "name", song.Name)
	return true
}

// has сообщает, есть ли песня с таким путём в библиотеке. Вызывается под mu.
func (p *Player) has(path string) bool {
	return lo.ContainsBy(p.songs, func(s library.Song) bool { return s.Path == path })
}

// Dispatch передаёт действие в главный цикл. Не блокирует: его можно
// вызывать из колбэков опроса клавиш.
func (p *Player) Dispatch(a input.Action) {
	select {
	case p.actions <- a:
	default:
		slog.Debug("action dropped", "action", a)
	}
}

// Run играет библиотеку, пока не придёт Quit или не отменят ctx.
func (p *Player) Run(ctx context.Context) error {
	p.mu.Lock()
	if len(p.songs) == 0 {
		p.mu.Unlock()
		return ErrEmptyLibrary
	}
	if p.opts.Shuffle {
		p.shuffleSongs()
	}
	p.playCurrent()
	p.mu.Unlock()

	ticker := time.NewTicker(p.opts.Tick)
	defer ticker.Stop()
	lastDraw := time.Time{}

	for {
		select {
		case <-ctx.Done():
			p.Quit()
			return nil
		case a := <-p.actions:
			if a == input.Quit {
				p.Quit()
				return nil
			}
			p.apply(a)
		case now := <-ticker.C:
			if err := p.engine.Update(); err != nil {
				p.Quit()
				return fmt.Errorf("audio engine: %w", err)
			}
			if err := p.checkCompletion(); err != nil {
				p.Quit()
				return err
			}
			if now.Sub(lastDraw) >= p.opts.Redraw {
				p.draw()
				lastDraw = now
			}
		}
	}
}

func (p *Player) apply(a input.Action) {
	switch a {
	case input.Next:
		p.Next()
	case input.Previous:
		p.Previous()
	case input.Shuffle:
		p.Shuffle()
	case input.TogglePause:
		p.TogglePause()
	case input.Quit:
		p.Quit()
	}
}

// checkCompletion переключает на следующую песню, когда текущая
// доиграла. На паузе не срабатывает. Если подряд не запустилась ни одна
// песня библиотеки, возвращает ErrNoPlayable.
func (p *Player) checkCompletion() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused || p.current == nil || len(p.songs) == 0 {
		return nil
	}
	if p.engine.IsPlaying(p.current.Channel) {
		return nil
	}
	if p.failed >= len(p.songs) {
		return ErrNoPlayable
	}
	p.switchTo((p.index + 1) % len(p.songs))
	return nil
}

// switchTo выполняет переход: остановить старый канал, выгрузить звук,
// сменить индекс, запустить новую песню. Вызывается под mu.
func (p *Player) switchTo(index int) {
	p.stopCurrent()
	p.index = index
	p.playCurrent()
}

func (p *Player) stopCurrent() {
	if p.current == nil {
		return
	}
	if p.engine.IsPlaying(p.current.Channel) {
		p.engine.StopChannel(p.current.Channel)
	}
	p.engine.UnloadSound(p.current.Path)
	p.current = nil
}

func (p *Player) playCurrent() {
	song := p.songs[p.index]
	id, err := p.engine.LoadAndPlaySound(song.Path, song.Path, p.opts.Mode, soundbox.Vec3{}, p.opts.VolumeDB)
	if err != nil {
		// Канал не играет, проверка окончания перейдёт к следующей песне.
		slog.Error("failed to play song", "path", song.Path, "error", err)
		p.failed++
	} else {
		p.failed = 0
	}
	p.current = &LoadedSong{Song: song, Channel: id}
}
