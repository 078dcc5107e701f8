package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/Roman77St/soundbox"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type InfoParams struct {
	File    string `pos:"true" required:"true" help:"Sound file to inspect."`
	Verbose bool   `short:"v" optional:"true" help:"Verbose logging."`
}

func InfoCmd() *cobra.Command {
	return boa.CmdT[InfoParams]{
		Use:         "info",
		Short:       "Show format, duration and tags of a sound file",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *InfoParams, cmd *cobra.Command, args []string) {
			setupLogging(os.Stderr, slog.LevelWarn, params.Verbose)
			info, err := soundbox.Inspect(params.File)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "info: %v\n", err)
				os.Exit(1)
			}
			renderInfo(os.Stdout, info)
		},
	}.ToCobra()
}

func renderInfo(w io.Writer, info soundbox.SoundInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"name", info.Name()},
		{"type", info.Type()},
		{"format", info.Format()},
		{"length", info.Length().String()},
	})

	tags := info.Tags()
	keys := lo.Keys(tags)
	slices.Sort(keys)
	if len(keys) > 0 {
		t.AppendSeparator()
	}
	for _, k := range keys {
		t.AppendRow(table.Row{k, tags[k]})
	}
	t.Render()
}
