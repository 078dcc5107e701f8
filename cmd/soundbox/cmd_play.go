package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Roman77St/soundbox"
	"github.com/Roman77St/soundbox/input"
	"github.com/Roman77St/soundbox/library"
	"github.com/Roman77St/soundbox/play"
	"github.com/spf13/cobra"
)

type PlayParams struct {
	Config   string  `short:"c" optional:"true" help:"Path to the config file (JSON or YAML)." default:"config.json"`
	Watch    bool    `short:"w" optional:"true" help:"Add new files from library folders while playing."`
	VolumeDb float64 `optional:"true" help:"Playback volume in decibels, overrides the config." default:"0"`
	Verbose  bool    `short:"v" optional:"true" help:"Verbose logging."`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play the music library",
		Long:        "Plays the music library from the config. Keys: N next, B previous, P pause, S shuffle, Q quit.",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			setupLogging(rawWriter{os.Stderr}, slog.LevelWarn, params.Verbose)
			playMain(cmd.Context(), params, cmd.Flags().Changed("volume-db"), os.Stderr)
		},
	}.ToCobra()
}

// playMain печатает ошибку плеера и возвращается: процесс плеера
// всегда завершается с кодом 0.
func playMain(ctx context.Context, params *PlayParams, volumeSet bool, stderr io.Writer) {
	if err := runPlay(ctx, params, volumeSet); err != nil {
		_, _ = fmt.Fprintf(stderr, "play: %v\n", err)
	}
}

func runPlay(ctx context.Context, params *PlayParams, volumeSet bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := library.LoadConfig(params.Config)
	if err != nil {
		return err
	}
	if volumeSet {
		cfg.Player.VolumeDB = params.VolumeDb
	}
	cfg.Player.Watch = cfg.Player.Watch || params.Watch

	songs, stats := library.Scan(cfg.MusicLibrary)
	slog.Info("library scanned",
		"songs", stats.Songs,
		"invalidPaths", stats.InvalidPaths,
		"invalidExtensions", stats.InvalidExtensions)

	engine, err := soundbox.New(soundbox.Options{})
	if err != nil {
		return fmt.Errorf("failed to init audio: %w", err)
	}
	defer engine.Close()

	player := play.New(engine, playerOptions(cfg.Player))
	player.LoadLibrary(songs)

	if cfg.Player.Watch {
		w, err := library.NewWatcher(cfg.MusicLibrary)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx, func(s library.Song) { player.AddSong(s) })
	}

	term := input.NewTerminal(os.Stdin, os.Stdout)
	if err := term.Open(); err != nil {
		slog.Warn("keyboard input disabled", "error", err)
	} else {
		defer term.Close()
	}

	keys := input.New(term, input.DefaultInterval)
	play.BindKeys(keys, player, play.DefaultBindings)
	keys.Start()
	defer keys.Shutdown()

	return player.Run(ctx)
}

func playerOptions(cfg library.PlayerConfig) play.Options {
	mode := soundbox.Mode2D
	if cfg.Stream {
		mode |= soundbox.ModeStream
	}
	return play.Options{
		Mode:     mode,
		VolumeDB: cfg.VolumeDB,
		Tick:     time.Duration(cfg.TickMs) * time.Millisecond,
		Shuffle:  cfg.Shuffle,
	}
}
