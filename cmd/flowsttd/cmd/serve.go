package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowstt/core/internal/audio"
	"github.com/flowstt/core/internal/config"
	"github.com/flowstt/core/internal/history"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/ipc"
	"github.com/flowstt/core/internal/loop"
	"github.com/flowstt/core/internal/logging"
	"github.com/flowstt/core/internal/transcribe"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.General.LogLevel = logLevel
	}
	if listen != "" {
		cfg.General.ListenAddr = listen
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.General.LogLevel))
	log := logging.New("flowsttd")

	snapshot := config.NewSnapshot(cfg)

	var watcher *config.Watcher
	if cfgPath != "" {
		watcher, err = config.NewWatcher(cfgPath, snapshot, log.With(logging.F("component", "config-watcher")))
		if err != nil {
			log.Warn("config hot-reload unavailable", "error", err.Error())
		} else {
			defer watcher.Close()
		}
	}

	hist, err := history.Open(cfg.General.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hist.Close()

	backend := audio.NewBackend(log.With(logging.F("component", "audio")))
	hotkeyBE := hotkey.NewBackend(log.With(logging.F("component", "hotkey")))

	// The IPC server needs a Controller at construction time, but the
	// Controller (the Orchestrator) needs the server's Hub. Break the
	// cycle with a thin proxy bound to the real Orchestrator once it
	// exists; the server itself is only used after Start returns.
	proxy := &controllerProxy{}
	server := ipc.NewServer(proxy, log.With(logging.F("component", "ipc")))

	var orch *loop.Orchestrator
	onResult := func(r transcribe.TranscriptionResult) {
		if orch != nil {
			orch.OnTranscriptionResult(r)
		}
	}
	worker, err := transcribe.NewWorker(cfg.Transcription.ModelPath, cfg.Transcription.Language,
		log.With(logging.F("component", "worker")), onResult)
	if err != nil {
		log.Warn("transcription worker unavailable, segments will be discarded", "error", err.Error())
	} else {
		worker.Start()
	}

	orch = loop.New(loop.Deps{
		Log:      log.With(logging.F("component", "loop")),
		Snapshot: snapshot,
		Backend:  backend,
		HotkeyBE: hotkeyBE,
		Hub:      server.Hub(),
		History:  hist,
		Worker:   worker,
	})
	proxy.orch = orch

	if watcher != nil {
		watcher.OnChange(func(old, updated config.Config) {
			log.Info("configuration reloaded")
		})
	}

	if err := orch.Start(); err != nil {
		return fmt.Errorf("start audio loop: %w", err)
	}
	defer orch.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("gui ipc listening", "addr", cfg.General.ListenAddr)
		if err := server.ListenAndServe(cfg.General.ListenAddr); err != nil {
			errCh <- err
		}
	}()
	defer server.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("ipc server: %w", err)
	}
}

// loadConfig resolves the config path from --config or the default
// location, returning config.Default() with an empty path when neither
// exists (fresh install, no hot-reload target).
func loadConfig() (config.Config, string, error) {
	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".flowstt", "config.toml")
		}
	}
	if path == "" {
		return config.Default(), "", nil
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}
