package soundbox

import (
	"io"

	"github.com/gopxl/beep/v2"
	gowav "github.com/youpy/go-wav"
)

// soundType — тип контейнера звука.
type soundType int

const (
	typeUnknown soundType = iota
	typeAIFF
	typeASF
	typeDLS
	typeFLAC
	typeFSB
	typeIT
	typeMIDI
	typeMOD
	typeMPEG
	typeOGGVorbis
	typePlaylist
	typeRaw
	typeS3M
	typeUser
	typeWAV
	typeXM
	typeXMA
	typeAudioQueue
	typeAT9
	typeVorbis
	typeMediaFoundation
	typeMediaCodec
	typeFADPCM
	typeOpus
	typeMax
)

func (t soundType) String() string {
	switch t {
	case typeAIFF:
		return "aiff"
	case typeASF:
		return "asf"
	case typeDLS:
		return "dls"
	case typeFLAC:
		return "flac"
	case typeFSB:
		return "fsb"
	case typeIT:
		return "it"
	case typeMIDI:
		return "mid"
	case typeMOD:
		return "mod"
	case typeMPEG:
		return "mpeg"
	case typeOGGVorbis:
		return "ogg"
	case typePlaylist:
		return "playlist"
	case typeRaw:
		return "raw"
	case typeS3M:
		return "s3m"
	case typeUser:
		return "user"
	case typeWAV:
		return "wav"
	case typeXM:
		return "xm"
	case typeXMA:
		return "xma"
	case typeAudioQueue:
		return "audioqueue"
	case typeAT9:
		return "at9"
	case typeVorbis:
		return "vorbis"
	case typeMediaFoundation:
		return "mediafoundation"
	case typeMediaCodec:
		return "mediacodec"
	case typeFADPCM:
		return "fadpcm"
	case typeOpus:
		return "opus"
	case typeMax:
		return "max"
	default:
		return "unknown"
	}
}

// decodable сообщает, есть ли для типа декодер.
func (t soundType) decodable() bool {
	switch t {
	case typeMPEG, typeWAV, typeFLAC, typeOGGVorbis:
		return true
	}
	return false
}

var extTypes = map[string]soundType{
	".aif":  typeAIFF,
	".aiff": typeAIFF,
	".asf":  typeASF,
	".wma":  typeASF,
	".wmv":  typeASF,
	".dls":  typeDLS,
	".flac": typeFLAC,
	".fsb":  typeFSB,
	".it":   typeIT,
	".mid":  typeMIDI,
	".mod":  typeMOD,
	".mp2":  typeMPEG,
	".mp3":  typeMPEG,
	".ogg":  typeOGGVorbis,
	".asx":  typePlaylist,
	".pls":  typePlaylist,
	".m3u":  typePlaylist,
	".wax":  typePlaylist,
	".raw":  typeRaw,
	".s3m":  typeS3M,
	".wav":  typeWAV,
	".xm":   typeXM,
	".mp4":  typeMediaFoundation,
	".m4a":  typeMediaFoundation,
}

func typeForExt(ext string) soundType {
	if t, ok := extTypes[ext]; ok {
		return t
	}
	return typeUnknown
}

// sampleFormat — формат сэмплов звука.
type sampleFormat int

const (
	formatNone sampleFormat = iota
	formatPCM8
	formatPCM16
	formatPCM24
	formatPCM32
	formatPCMFloat
	formatBitstream
	formatMax
)

func (f sampleFormat) String() string {
	switch f {
	case formatPCM8:
		return "pcm8"
	case formatPCM16:
		return "pcm16"
	case formatPCM24:
		return "pcm24"
	case formatPCM32:
		return "pcm32"
	case formatPCMFloat:
		return "pcm_float"
	case formatBitstream:
		return "bitstream"
	case formatMax:
		return "max"
	case formatNone:
		fallthrough
	default:
		return "unknown"
	}
}

func pcmFormatForBytes(n int) sampleFormat {
	switch n {
	case 1:
		return formatPCM8
	case 2:
		return formatPCM16
	case 3:
		return formatPCM24
	case 4:
		return formatPCM32
	}
	return formatNone
}

// probeSampleFormat определяет формат сэмплов. Для WAV заголовок читается
// через go-wav, остальные форматы берутся из декодера.
func probeSampleFormat(kind soundType, format beep.Format, rs readSeekCloser) sampleFormat {
	switch kind {
	case typeWAV:
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return formatNone
		}
		wf, err := gowav.NewReader(rs).Format()
		if err != nil {
			return formatNone
		}
		switch wf.AudioFormat {
		case gowav.AudioFormatIEEEFloat:
			return formatPCMFloat
		case gowav.AudioFormatPCM:
			return pcmFormatForBytes(int(wf.BitsPerSample) / 8)
		case gowav.AudioFormatALaw, gowav.AudioFormatMULaw:
			return formatBitstream
		}
		return formatNone
	case typeOGGVorbis:
		return formatPCMFloat
	case typeMPEG:
		// go-mp3 всегда отдаёт 16-битный стерео поток.
		return formatPCM16
	default:
		return pcmFormatForBytes(format.Precision)
	}
}
