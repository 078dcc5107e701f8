package soundbox

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ChannelID идентифицирует канал воспроизведения. Идентификаторы выдаются
// по возрастанию и никогда не используются повторно.
type ChannelID int32

// Options задаёт параметры аудио-движка.
type Options struct {
	SampleRate  int           // Частота дискретизации выходного устройства, по умолчанию 44100.
	MaxChannels int           // Максимум одновременно звучащих каналов, по умолчанию 32.
	BufferSize  time.Duration // Размер буфера устройства, 0 — значение драйвера.
}

const (
	defaultSampleRate  = 44100
	defaultMaxChannels = 32
)

// voice — это то, что движок требует от канала устройства.
// *oto.Player удовлетворяет этому интерфейсу.
type voice interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	BufferedSize() int
}

// device — выходное устройство вместе с его микшером (группой каналов).
type device interface {
	SampleRate() int
	NewVoice(r io.Reader) voice
	Update() error
	Close() error
}

// Engine — фасад над аудио-бэкендом: реестр звуков по имени и
// активных каналов по ChannelID.
type Engine struct {
	mu sync.Mutex

	dev         device
	maxChannels int

	sounds        map[string]*sound
	channels      map[ChannelID]*channel
	nextChannelID ChannelID
	listener      listener

	lastDeviceErr error
	closed        bool
}

var (
	otoCtx  *oto.Context
	otoRate int
	once    sync.Once
	initErr error
)

// initEngine инициализирует аудио-движок Oto один раз за все время работы программы.
// Oto не позволяет создать второй контекст, поэтому повторные вызовы
// получают уже открытый контекст.
func initEngine(opts Options) (*oto.Context, error) {
	once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   opts.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   opts.BufferSize,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, initErr = oto.NewContext(op)
		if initErr == nil {
			<-readyChan
			otoRate = opts.SampleRate
		}
	})
	return otoCtx, initErr
}

// otoDevice — устройство поверх контекста Oto. Контекст сам смешивает
// все плееры, поэтому он же играет роль группы каналов.
type otoDevice struct {
	ctx  *oto.Context
	rate int
}

func (d *otoDevice) SampleRate() int { return d.rate }

func (d *otoDevice) NewVoice(r io.Reader) voice {
	// Плеер Oto создаётся на паузе и не читает данные до вызова Play.
	return d.ctx.NewPlayer(r)
}

func (d *otoDevice) Update() error { return d.ctx.Err() }

func (d *otoDevice) Close() error { return d.ctx.Suspend() }

// New создаёт движок поверх системного аудио-устройства.
// Ошибка инициализации устройства фатальна для вызывающего кода.
func New(opts Options) (*Engine, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaultSampleRate
	}
	ctx, err := initEngine(opts)
	if err != nil {
		return nil, err
	}
	// Контекст мог быть приостановлен предыдущим Engine.Close.
	if err := ctx.Resume(); err != nil {
		return nil, err
	}
	return newEngine(&otoDevice{ctx: ctx, rate: otoRate}, opts), nil
}

func newEngine(dev device, opts Options) *Engine {
	if opts.MaxChannels <= 0 {
		opts.MaxChannels = defaultMaxChannels
	}
	return &Engine{
		dev:           dev,
		maxChannels:   opts.MaxChannels,
		sounds:        make(map[string]*sound),
		channels:      make(map[ChannelID]*channel),
		nextChannelID: 1,
		listener:      defaultListener(),
	}
}

// Close останавливает все каналы, освобождает звуки и устройство
// в порядке, обратном захвату.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	for _, ch := range e.channels {
		ch.stop()
	}
	clear(e.channels)

	for _, s := range e.sounds {
		s.release()
	}
	clear(e.sounds)

	return e.dev.Close()
}

// allocChannelID выдаёт следующий идентификатор канала. Вызывается под e.mu.
func (e *Engine) allocChannelID() ChannelID {
	id := e.nextChannelID
	e.nextChannelID++
	return id
}

// getChannel — хелпер для получения канала из реестра. Вызывается под e.mu.
func (e *Engine) getChannel(id ChannelID) (*channel, bool) {
	ch, ok := e.channels[id]
	return ch, ok
}

// logDeviceErr сообщает об асинхронной ошибке устройства один раз.
func (e *Engine) logDeviceErr(err error) {
	if err == nil || err == e.lastDeviceErr {
		return
	}
	e.lastDeviceErr = err
	slog.Error("audio device error", "error", err)
}
