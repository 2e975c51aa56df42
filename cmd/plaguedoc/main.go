package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"plaguedoc/internal/config"
	"plaguedoc/internal/rain"
	"plaguedoc/internal/terminal"
	"plaguedoc/internal/util"
	"plaguedoc/pkg/robottask"
)

func main() {
	cfgPath := "config/plaguedoc.yaml"
	if p := os.Getenv("PLAGUEDOC_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logFile := util.NewLogger(util.LogOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer logFile.Close()
	util.SetDefault(logger)

	params := rain.Params{
		CellSize:       cfg.Rain.CellSize,
		ChainLength:    cfg.Rain.ChainLength,
		Advance:        cfg.Rain.Advance,
		ResetThreshold: cfg.Rain.ResetThreshold,
		Fade:           cfg.Rain.Fade,
		Glyphs:         []rune(cfg.Rain.Glyphs),
	}
	seed := uint64(time.Now().UnixNano())
	scheduler := rain.NewScheduler(params, cfg.Rain.FPS, rand.New(rand.NewPCG(seed, seed>>1)), logger)
	resizer := rain.NewResizeController(scheduler, cfg.Rain.ResizeDebounce, logger)

	sources := make([]terminal.Source, 0, len(cfg.API.Sources))
	for _, s := range cfg.API.Sources {
		sources = append(sources, terminal.Source{ID: s.ID, Title: s.Title, Endpoint: s.Endpoint})
	}
	client := robottask.NewClient(robottask.WithTimeout(cfg.API.RequestTimeout))
	buffer := terminal.NewBuffer()
	pipeline := terminal.NewPipeline(sources, client, buffer, terminal.NewTypewriter(), terminal.Options{
		Header:          cfg.Terminal.Header,
		TypeDelay:       cfg.Terminal.TypeDelay,
		ActivationDelay: cfg.Terminal.ActivationDelay,
		KeepHeader:      cfg.Terminal.KeepHeader,
	}, logger)
	logger.Info("configured", "sources", len(sources), "fps", cfg.Rain.FPS, "cell_size", cfg.Rain.CellSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan struct{}, 1)
	changes := make(chan struct{}, 1)
	scheduler.OnFrame(func() { signal(frames) })
	buffer.OnChange(func() { signal(changes) })

	scheduler.Start(ctx)
	defer scheduler.Stop()
	defer resizer.Stop()

	p := tea.NewProgram(
		initialModel(ctx, cancel, logger, scheduler, resizer, pipeline, buffer, frames, changes),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
