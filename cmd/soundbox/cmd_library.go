package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Roman77St/soundbox/library"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type LibraryParams struct {
	Config  string `short:"c" optional:"true" help:"Path to the config file (JSON or YAML)." default:"config.json"`
	Verbose bool   `short:"v" optional:"true" help:"Verbose logging."`
}

func LibraryCmd() *cobra.Command {
	return boa.CmdT[LibraryParams]{
		Use:         "library",
		Short:       "List songs found in the music library",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *LibraryParams, cmd *cobra.Command, args []string) {
			setupLogging(os.Stderr, slog.LevelInfo, params.Verbose)
			cfg, err := library.LoadConfig(params.Config)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "library: %v\n", err)
				os.Exit(1)
			}
			songs, stats := library.Scan(cfg.MusicLibrary)
			renderLibrary(os.Stdout, songs, stats)
		},
	}.ToCobra()
}

func renderLibrary(w io.Writer, songs []library.Song, stats library.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Path"})
	for i, s := range songs {
		t.AppendRow(table.Row{i + 1, s.Name, s.Path})
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d songs", stats.Songs),
		fmt.Sprintf("%d invalid paths, %d invalid extensions", stats.InvalidPaths, stats.InvalidExtensions),
	})
	t.Render()
}
