package soundbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/hajimehoshi/go-mp3"
)

// getDecoder выбирает декодер по типу звука. Закрытие возвращённого
// потока закрывает и источник rs.
func getDecoder(kind soundType, rs readSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch kind {
	case typeMPEG:
		stream, format, err = decodeMP3(rs)
	case typeWAV:
		stream, format, err = wav.Decode(rs)
	case typeFLAC:
		stream, format, err = flac.Decode(rs)
	case typeOGGVorbis:
		stream, format, err = vorbis.Decode(rs)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		rs.Close()
		return nil, beep.Format{}, err
	}
	return &sourceCloser{StreamSeekCloser: stream, src: rs}, format, nil
}

// sourceCloser гарантирует закрытие файла вне зависимости от того,
// закрывает ли его сам декодер.
type sourceCloser struct {
	beep.StreamSeekCloser
	src io.Closer
}

func (s *sourceCloser) Close() error {
	err := s.StreamSeekCloser.Close()
	// Повторное закрытие файла после декодера не считается ошибкой.
	s.src.Close()
	return err
}

// mp3Stream адаптирует декодер go-mp3 (16 бит, 2 канала, little endian)
// к интерфейсу beep.StreamSeekCloser.
type mp3Stream struct {
	d      *mp3.Decoder
	src    io.Closer
	raw    []byte
	pos    int
	frames int
	err    error
}

const mp3FrameBytes = 4

func decodeMP3(rs readSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	d, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, beep.Format{}, err
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(d.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Stream{d: d, src: rs, frames: int(d.Length() / mp3FrameBytes)}, format, nil
}

func (s *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	need := len(samples) * mp3FrameBytes
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	buf := s.raw[:need]

	read, err := io.ReadFull(s.d, buf)
	n = read / mp3FrameBytes
	for i := range n {
		l := int16(binary.LittleEndian.Uint16(buf[i*mp3FrameBytes:]))
		r := int16(binary.LittleEndian.Uint16(buf[i*mp3FrameBytes+2:]))
		samples[i][0] = float64(l) / 32768
		samples[i][1] = float64(r) / 32768
	}
	s.pos += n
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
	}
	return n, n > 0
}

func (s *mp3Stream) Err() error { return s.err }

func (s *mp3Stream) Len() int { return s.frames }

func (s *mp3Stream) Position() int { return s.pos }

func (s *mp3Stream) Seek(p int) error {
	if p < 0 || p > s.frames {
		return fmt.Errorf("mp3: seek position %d out of range [0, %d]", p, s.frames)
	}
	if _, err := s.d.Seek(int64(p)*mp3FrameBytes, io.SeekStart); err != nil {
		return err
	}
	s.pos = p
	return nil
}

func (s *mp3Stream) Close() error { return s.src.Close() }
