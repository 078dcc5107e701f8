// Package input опрашивает клавиатуру в фоне и вызывает подписчиков
// при нажатии клавиш, привязанных к действиям.
package input

import (
	"sync"
	"sync/atomic"
	"time"
	"unicode"
)

// Action — действие, к которому привязывается клавиша.
type Action int

const (
	Next Action = iota
	Previous
	TogglePause
	Shuffle
	Quit
)

func (a Action) String() string {
	switch a {
	case Next:
		return "next"
	case Previous:
		return "previous"
	case TogglePause:
		return "toggle-pause"
	case Shuffle:
		return "shuffle"
	case Quit:
		return "quit"
	}
	return "unknown"
}

// Key — код клавиши. Для букв используется заглавная руна.
type Key int32

// NoKey возвращается в CallbackID, если у действия нет клавиши.
const NoKey Key = -1

// CtrlC приходит из терминала в raw-режиме как байт 0x03.
const CtrlC Key = 3

// KeyState — состояние клавиши между опросами.
type KeyState int

const (
	Released KeyState = iota
	Pressed
	Held
)

// CallbackID кодирует клавишу (старшие 32 бита) и позицию в списке.
type CallbackID int64

func newCallbackID(key Key, index int) CallbackID {
	return CallbackID(int64(key)<<32 | int64(uint32(index)))
}

func (id CallbackID) key() Key   { return Key(int64(id) >> 32) }
func (id CallbackID) index() int { return int(uint32(id)) }

// KeySource сообщает сырое состояние клавиш.
type KeySource interface {
	KeyDown(key Key) bool
	// Focused — есть ли у окна процесса фокус ввода.
	Focused() bool
}

// DefaultInterval — период опроса клавиш.
const DefaultInterval = 5 * time.Millisecond

// Manager хранит привязки клавиш и подписчиков. Колбэки вызываются
// синхронно в горутине опроса под mu, поэтому должны быть быстрыми
// и не вызывать методы Manager.
type Manager struct {
	mu sync.Mutex

	src      KeySource
	interval time.Duration

	bindings  map[Key]Action
	callbacks map[Action][]func()
	states    map[Key]KeyState

	shutdown atomic.Bool
	started  bool
	wg       sync.WaitGroup
}

func New(src KeySource, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		src:       src,
		interval:  interval,
		bindings:  make(map[Key]Action),
		callbacks: make(map[Action][]func()),
		states:    make(map[Key]KeyState),
	}
}

func normalize(key Key) Key {
	return Key(unicode.ToUpper(rune(key)))
}

// RegisterKeyToAction привязывает клавишу к действию. Каждая клавиша
// ведёт ровно к одному действию: повторная привязка возвращает false.
func (m *Manager) RegisterKeyToAction(key Key, action Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key = normalize(key)
	if _, ok := m.bindings[key]; ok {
		return false
	}
	m.bindings[key] = action
	m.states[key] = Released
	return true
}

// SubscribeToKeypress добавляет колбэк для действия.
func (m *Manager) SubscribeToKeypress(cb func(), action Action) CallbackID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[action] = append(m.callbacks[action], cb)
	return newCallbackID(m.keyFor(action), len(m.callbacks[action])-1)
}

// keyFor ищет клавишу с наименьшим кодом, привязанную к действию.
func (m *Manager) keyFor(action Action) Key {
	found := NoKey
	for k, a := range m.bindings {
		if a == action && (found == NoKey || k < found) {
			found = k
		}
	}
	return found
}

// UnsubscribeCallback удаляет колбэк. Позиции остальных колбэков
// не сдвигаются, поэтому их идентификаторы остаются в силе.
func (m *Manager) UnsubscribeCallback(id CallbackID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	action, ok := m.bindings[id.key()]
	if !ok {
		return false
	}
	list := m.callbacks[action]
	i := id.index()
	if i >= len(list) || list[i] == nil {
		return false
	}
	list[i] = nil
	return true
}

func (m *Manager) UnsubscribeAllCallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.callbacks)
}

// IsPressed сообщает, удерживается ли клавиша по данным последнего опроса.
func (m *Manager) IsPressed(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[normalize(key)] != Released
}

func (m *Manager) State(key Key) KeyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[normalize(key)]
}

// TriggerCallbacks вызывает подписчиков действия так же, как при нажатии.
func (m *Manager) TriggerCallbacks(action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fire(action)
}

func (m *Manager) fire(action Action) {
	for _, cb := range m.callbacks[action] {
		if cb != nil {
			cb()
		}
	}
}

// poll — один тик опроса: Released → Pressed → Held → Released.
// Колбэки срабатывают только на переходе в Pressed.
func (m *Manager) poll() {
	focused := m.src.Focused()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, action := range m.bindings {
		down := focused && m.src.KeyDown(key)
		held := m.states[key] != Released
		switch {
		case down && !held:
			m.states[key] = Pressed
			m.fire(action)
		case down && held:
			m.states[key] = Held
		case !down && held:
			m.states[key] = Released
		}
	}
}

// Start запускает опрос в отдельной горутине.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.wg.Add(1)
	go m.run()
}

func (m *Manager) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for !m.shutdown.Load() {
		m.poll()
		<-ticker.C
	}
}

// Shutdown останавливает опрос и ждёт завершения горутины.
func (m *Manager) Shutdown() {
	m.shutdown.Store(true)
	m.wg.Wait()
}
