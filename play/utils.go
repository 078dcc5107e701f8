package play

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
)

// Терминал может быть в raw-режиме, поэтому строки заканчиваются \r\n.
const lineEnd = "\r\n"

// formatTime переводит длительность в m:ss.
func formatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// status собирает строки статуса. Вызывается под mu.
func (p *Player) status() []string {
	if len(p.songs) == 0 {
		return nil
	}
	song := p.songs[p.index]
	name := song.Name
	var elapsed, total time.Duration

	if p.current != nil {
		if info, ok := p.engine.PlayingSound(p.current.Channel); ok {
			name = info.Name()
			elapsed, total = info.Position(), info.Length()
		}
	}

	lines := []string{
		fmt.Sprintf("Song %d/%d", p.index+1, len(p.songs)),
		"Song: " + titleStyle.Render(name),
		fmt.Sprintf("\t%s/%s", formatTime(elapsed), formatTime(total)),
	}
	if p.paused {
		lines = append(lines, statusStyle.Render("paused (P to play from the start)"))
	}
	return lines
}

// draw стирает предыдущий вывод и печатает статус заново.
func (p *Player) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for range p.lines {
		b.WriteString("\x1b[1A\x1b[2K")
	}
	lines := p.status()
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString(lineEnd)
	}
	p.lines = len(lines)
	fmt.Fprint(p.opts.Out, b.String())
}
