package soundbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Mode — флаги создания звука. Нулевое значение: 3D, без зацикливания,
// данные файла держатся в памяти и декодируются при каждом воспроизведении.
type Mode uint8

const (
	Mode2D     Mode = 1 << iota // Без пространственного позиционирования.
	ModeLoop                    // Бесконечное зацикливание.
	ModeStream                  // Читать файл с диска во время воспроизведения.
)

func (m Mode) spatial() bool  { return m&Mode2D == 0 }
func (m Mode) looping() bool  { return m&ModeLoop != 0 }
func (m Mode) streamed() bool { return m&ModeStream != 0 }

// LoadResult — итог LoadSound.
type LoadResult int

const (
	LoadFailed        LoadResult = -1 // Бэкенд не смог открыть или декодировать файл.
	LoadAlreadyExists LoadResult = 0  // Звук с таким именем уже загружен.
	LoadCreated       LoadResult = 1  // Звук загружен и сохранён в реестре.
)

func (r LoadResult) String() string {
	switch r {
	case LoadFailed:
		return "failed"
	case LoadAlreadyExists:
		return "already exists"
	case LoadCreated:
		return "created"
	default:
		return fmt.Sprintf("LoadResult(%d)", int(r))
	}
}

var (
	ErrSoundNotFound      = errors.New("sound not found")
	ErrUnsupportedFormat  = errors.New("unsupported sound format")
	ErrTooManyChannels    = errors.New("too many channels playing")
	ErrEngineClosed       = errors.New("engine closed")
	errTagWidth           = errors.New("unsupported tag data width")
	errTagDataUnsupported = errors.New("unsupported tag data type")
)

// sound — непрозрачный дескриптор загруженного звука. Наружу не выдаётся.
type sound struct {
	name string
	path string
	mode Mode
	kind soundType

	data []byte // Закодированное содержимое файла; nil для потоковых звуков.

	title      string
	format     sampleFormat
	sampleRate int
	length     time.Duration
	tags       []rawTag
}

// loadSoundFile открывает файл, проверяет, что его можно декодировать,
// и считывает формат, длительность и теги.
func loadSoundFile(path, name string, mode Mode) (*sound, error) {
	kind := typeForExt(filepath.Ext(path))
	if !kind.decodable() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	s := &sound{
		name: name,
		path: path,
		mode: mode,
		kind: kind,
	}

	if !mode.streamed() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		s.data = data
	}

	rs, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	stream, format, err := getDecoder(kind, rs)
	if err != nil {
		return nil, err
	}
	s.sampleRate = int(format.SampleRate)
	s.length = format.SampleRate.D(stream.Len())
	s.format = probeSampleFormat(kind, format, rs)
	// Декодер закрывает источник, поэтому теги читаем из нового.
	stream.Close()

	s.readTags()
	return s, nil
}

// open возвращает новый источник данных звука: файл с диска для
// потоковых звуков и ридер поверх памяти для остальных.
func (s *sound) open() (readSeekCloser, error) {
	if s.data != nil {
		return nopCloser{bytes.NewReader(s.data)}, nil
	}
	return os.Open(s.path)
}

// readTags заполняет заголовок и теги. Файл без тегов не считается ошибкой.
func (s *sound) readTags() {
	rs, err := s.open()
	if err != nil {
		return
	}
	defer rs.Close()

	m, err := tag.ReadFrom(rs)
	if err != nil {
		return
	}
	s.title = m.Title()
	for name, value := range m.Raw() {
		s.tags = append(s.tags, newRawTag(name, value))
	}
}

// backendName имитирует чтение имени в буфер фиксированной длины.
func (s *sound) backendName() string {
	name := s.title
	if name == "" {
		name = filepath.Base(s.path)
	}
	return trimName(name, nameBufferLength)
}

func (s *sound) release() {
	s.data = nil
	s.tags = nil
}

const nameBufferLength = 100

// trimName обрезает имя до размера буфера (с учётом завершающего нуля)
// по границе руны и убирает пробелы в конце.
func trimName(name string, bufLen int) string {
	if len(name) >= bufLen {
		cut := bufLen - 1
		for cut > 0 && !isRuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return strings.TrimRightFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
	})
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

type readSeekCloser interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// nopCloser оборачивает bytes.Reader, чтобы он удовлетворял readSeekCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
