package soundbox

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// channelSource отдаёт устройству PCM (int16 LE, стерео) одного канала.
// Цепочка: декодер → зацикливание → ресэмплинг → панорама.
// Устройство читает из своей горутины, поэтому все методы под mu.
type channelSource struct {
	mu sync.Mutex

	decoder beep.StreamSeekCloser
	rate    beep.SampleRate
	chain   beep.Streamer
	pan     *effects.Pan

	buf    [][2]float64
	closed bool
}

func newChannelSource(decoder beep.StreamSeekCloser, format beep.Format, deviceRate int, loop bool) *channelSource {
	var s beep.Streamer = decoder
	if loop {
		s = &looper{s: decoder}
	}
	if dst := beep.SampleRate(deviceRate); format.SampleRate != dst {
		s = beep.Resample(4, format.SampleRate, dst, s)
	}
	pan := &effects.Pan{Streamer: s}
	return &channelSource{
		decoder: decoder,
		rate:    format.SampleRate,
		chain:   pan,
		pan:     pan,
	}
}

const bytesPerFrame = 4

func (c *channelSource) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, io.EOF
	}
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(c.buf) < frames {
		c.buf = make([][2]float64, frames)
	}
	samples := c.buf[:frames]

	n, ok := c.chain.Stream(samples)
	for i := range n {
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], uint16(toInt16(samples[i][0])))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], uint16(toInt16(samples[i][1])))
	}
	if !ok || n == 0 {
		if err := c.decoder.Err(); err != nil {
			return n * bytesPerFrame, err
		}
		return n * bytesPerFrame, io.EOF
	}
	return n * bytesPerFrame, nil
}

func toInt16(v float64) int16 {
	v = max(-1, min(1, v))
	return int16(v * 32767)
}

func (c *channelSource) setPan(pan float64) {
	c.mu.Lock()
	c.pan.Pan = pan
	c.mu.Unlock()
}

// position возвращает позицию декодера (уже прочитанную устройством).
func (c *channelSource) position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	return c.rate.D(c.decoder.Position())
}

func (c *channelSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.decoder.Close()
}

// looper бесконечно повторяет поток, перематывая его в начало.
type looper struct {
	s   beep.StreamSeeker
	err error
}

func (l *looper) Stream(samples [][2]float64) (n int, ok bool) {
	if l.err != nil {
		return 0, false
	}
	for len(samples) > 0 {
		sn, sok := l.s.Stream(samples)
		n += sn
		samples = samples[sn:]
		if sok && sn > 0 {
			continue
		}
		if err := l.s.Err(); err != nil {
			l.err = err
			return n, n > 0
		}
		// Пустой поток зациклить нельзя.
		if l.s.Len() == 0 {
			return n, n > 0
		}
		if err := l.s.Seek(0); err != nil {
			l.err = err
			return n, n > 0
		}
	}
	return n, true
}

func (l *looper) Err() error { return l.err }
