package soundbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/dhowden/tag"
)

// tagDataType — объявленный тип данных тега.
type tagDataType int

const (
	tagInt tagDataType = iota
	tagFloat
	tagString
	tagBinary
	tagUnsupported
)

// rawTag хранит тег так, как его отдал файл: тип и байты.
// Значение декодируется только при снимке метаданных.
type rawTag struct {
	name string
	kind tagDataType
	data []byte
}

// newRawTag переводит значение из tag.Metadata.Raw в rawTag.
// Ширина целых и вещественных чисел берётся из типа Go.
func newRawTag(name string, value any) rawTag {
	t := rawTag{name: name, kind: tagUnsupported}

	switch v := value.(type) {
	case *tag.Picture, tag.Picture:
		// Картинки не имеют текстового представления.
	case *tag.Comm:
		t.kind, t.data = tagString, cString(v.Text)
	case tag.Comm:
		t.kind, t.data = tagString, cString(v.Text)
	case string:
		t.kind, t.data = tagString, cString(v)
	case []byte:
		t.kind, t.data = tagBinary, v
	case bool:
		var b byte
		if v {
			b = 1
		}
		t.kind, t.data = tagInt, []byte{b}
	case int8:
		t.kind, t.data = tagInt, []byte{byte(v)}
	case uint8:
		t.kind, t.data = tagInt, []byte{v}
	case int16:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint16(nil, uint16(v))
	case uint16:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint16(nil, v)
	case int32:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint32(nil, uint32(v))
	case uint32:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint32(nil, v)
	case int:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint64(nil, uint64(v))
	case int64:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint64(nil, uint64(v))
	case uint64:
		t.kind, t.data = tagInt, binary.LittleEndian.AppendUint64(nil, v)
	case float32:
		t.kind, t.data = tagFloat, binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
	case float64:
		t.kind, t.data = tagFloat, binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
	case fmt.Stringer:
		t.kind, t.data = tagString, cString(v.String())
	}
	return t
}

func cString(s string) []byte {
	return append([]byte(s), 0)
}

// decodeTag возвращает текстовое значение тега.
func decodeTag(t rawTag) (string, error) {
	switch t.kind {
	case tagString, tagBinary:
		if i := bytes.IndexByte(t.data, 0); i >= 0 {
			return string(t.data[:i]), nil
		}
		return string(t.data), nil
	case tagInt:
		switch len(t.data) {
		case 1:
			return strconv.FormatInt(int64(int8(t.data[0])), 10), nil
		case 2:
			return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(t.data))), 10), nil
		case 4:
			return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(t.data))), 10), nil
		case 8:
			return strconv.FormatInt(int64(binary.LittleEndian.Uint64(t.data)), 10), nil
		}
		return "", fmt.Errorf("%w: int of %d bytes", errTagWidth, len(t.data))
	case tagFloat:
		switch len(t.data) {
		case 4:
			v := math.Float32frombits(binary.LittleEndian.Uint32(t.data))
			return strconv.FormatFloat(float64(v), 'f', 6, 64), nil
		case 8:
			v := math.Float64frombits(binary.LittleEndian.Uint64(t.data))
			return strconv.FormatFloat(v, 'f', 6, 64), nil
		}
		return "", fmt.Errorf("%w: float of %d bytes", errTagWidth, len(t.data))
	}
	return "", errTagDataUnsupported
}

// decodeTags собирает теги в карту. Тег, который не удалось декодировать,
// получает пустое значение; при повторе ключа побеждает последний.
func decodeTags(tags []rawTag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		value, err := decodeTag(t)
		if err != nil {
			slog.Debug("tag not decoded", "tag", t.name, "error", err)
		}
		out[t.name] = value
	}
	return out
}
