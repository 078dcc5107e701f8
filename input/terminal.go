package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

// Последовательности xterm для отчётов о фокусе окна.
const (
	focusReportOn  = "\x1b[?1004h"
	focusReportOff = "\x1b[?1004l"
)

// DefaultHold — сколько клавиша считается нажатой после последнего байта.
// Терминал не сообщает об отпускании, поэтому удержание определяется
// по автоповтору.
const DefaultHold = 120 * time.Millisecond

var errNotTerminal = errors.New("input is not a terminal")

// Terminal — источник клавиш поверх терминала в raw-режиме.
type Terminal struct {
	in   *os.File
	out  io.Writer
	Hold time.Duration

	mu       sync.Mutex
	lastSeen map[Key]time.Time
	focused  bool
	now      func() time.Time

	oldState *term.State
}

func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		Hold:     DefaultHold,
		lastSeen: make(map[Key]time.Time),
		// Терминал без отчётов о фокусе считается всегда в фокусе.
		focused: true,
		now:     time.Now,
	}
}

// Open переводит терминал в raw-режим и запускает чтение ввода.
func (t *Terminal) Open() error {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return errNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	t.oldState = state
	fmt.Fprint(t.out, focusReportOn)

	go t.readLoop()
	return nil
}

// Close возвращает терминал в исходный режим. Горутина чтения
// остаётся заблокированной в Read до выхода процесса.
func (t *Terminal) Close() error {
	if t.oldState == nil {
		return nil
	}
	fmt.Fprint(t.out, focusReportOff)
	err := term.Restore(int(t.in.Fd()), t.oldState)
	t.oldState = nil
	return err
}

func (t *Terminal) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// feed разбирает байты ввода: отчёты о фокусе меняют флаг, прочие
// escape-последовательности пропускаются, остальные руны считаются нажатиями.
func (t *Terminal) feed(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	for len(b) > 0 {
		if b[0] == 0x1b {
			b = t.escape(b)
			continue
		}
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r == utf8.RuneError {
			continue
		}
		t.lastSeen[Key(unicode.ToUpper(r))] = now
	}
}

// escape обрабатывает последовательность, начинающуюся с ESC, и
// возвращает остаток ввода.
func (t *Terminal) escape(b []byte) []byte {
	if len(b) >= 2 && b[1] == 'O' {
		// SS3: F1-F4 и стрелки в режиме курсора приложения, один финальный байт.
		if len(b) < 3 {
			return nil
		}
		return b[3:]
	}
	if len(b) < 2 || b[1] != '[' {
		return b[1:]
	}
	if len(b) >= 3 {
		switch b[2] {
		case 'I':
			t.focused = true
			return b[3:]
		case 'O':
			t.focused = false
			clear(t.lastSeen)
			return b[3:]
		}
	}
	// CSI: параметры и промежуточные байты до финального 0x40–0x7E.
	for i := 2; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return b[i+1:]
		}
	}
	return nil
}

func (t *Terminal) KeyDown(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen, ok := t.lastSeen[key]
	return ok && t.now().Sub(seen) < t.Hold
}

func (t *Terminal) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}
