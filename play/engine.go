package play

import (
	"github.com/Roman77St/soundbox"
	"github.com/Roman77St/soundbox/library"
)

// Engine — то, что плеер использует из аудио-движка.
// *soundbox.Engine удовлетворяет этому интерфейсу.
type Engine interface {
	LoadSound(path, name string, mode soundbox.Mode) (soundbox.LoadResult, error)
	UnloadSound(name string)
	LoadAndPlaySound(path, name string, mode soundbox.Mode, pos soundbox.Vec3, volumeDB float64) (soundbox.ChannelID, error)
	StopChannel(id soundbox.ChannelID)
	StopAllChannels()
	IsPlaying(id soundbox.ChannelID) bool
	PlayingSound(id soundbox.ChannelID) (soundbox.SoundInfo, bool)
	Update() error
}

var _ Engine = (*soundbox.Engine)(nil)

// LoadedSong — песня вместе с каналом, на котором она играет.
// Заменяется целиком при каждом переходе.
type LoadedSong struct {
	library.Song
	Channel soundbox.ChannelID
}

// LoadStats — итог проверки библиотеки движком.
type LoadStats struct {
	Created    int
	Duplicates int
	Failed     int
}
