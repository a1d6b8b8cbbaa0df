package main

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"handsfree/internal/assistant"
	"handsfree/internal/audio"
	"handsfree/internal/bridge"
	"handsfree/internal/config"
	"handsfree/internal/ipc"
	"handsfree/internal/logging"
	"handsfree/internal/media"
	"handsfree/internal/nlu"
	"handsfree/internal/notify"
	"handsfree/internal/proxy"
	"handsfree/internal/recognition"
	"handsfree/internal/store"
	"handsfree/internal/tts"
	"handsfree/pkg/stt"
)

func main() {
	cfg, err := config.Load("handsfree", os.Args[1:])
	if err != nil {
		logging.Setup(os.Stdout, "info")
		log.Error("Invalid configuration", "err", err)
		os.Exit(2)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	asst := assistant.New(assistant.Config{Matcher: matcher, Store: st})
	br := bridge.New(ctx, asst, st)
	asst.AddObserver(br)

	var chime *notify.Chime
	if cfg.BeepFile != "" {
		if chime, err = notify.LoadChime(cfg.BeepFile); err != nil {
			log.Warn("Failed to load beep, continuing silent", "err", err)
		}
	}

	if cfg.Speak {
		spk := tts.NewSpeaker(cfg.Lang)
		go spk.Run(ctx)
		asst.AddObserver(voice{spk})
	}

	var rec *audio.Recorder
	if cfg.Source == "mic" || cfg.Media == "local" {
		rec = audio.NewRecorder()
		if err := rec.Init(); err != nil {
			return err
		}
		defer rec.Close()
		log.Debug("Loaded recorder")
	}

	var local *media.Local
	switch cfg.Media {
	case "local":
		local = media.NewLocal(ctx, rec, asst, cfg.RecordingsDir)
		local.Ducker = audio.NewDucker(audio.Pactl{}, []string{"handsfree"}, 10, 300*time.Millisecond)
		local.Cue = func(media.Cue) { chime.Play() }
		asst.SetMedia(local)
		go local.Run(ctx)
	default:
		asst.SetMedia(br)
	}

	var session *recognition.Session
	switch cfg.Source {
	case "browser":
		session = recognition.NewSession(br, asst)
	case "mic":
		whisper, err := stt.NewTranscriber(cfg.WhisperModel)
		if err != nil {
			return err
		}
		defer whisper.Close()
		log.Debug("Loaded whisper")

		mic := recognition.NewMicSource(rec, whisper, stt.CommandOptions())
		mic.OnCue(chime.Play)
		session = recognition.NewSession(mic, asst)
	}

	done := make(chan error, 1)
	go func() { done <- asst.Run(ctx) }()

	if session != nil {
		session.SetRestartDelay(cfg.RestartDelay)
		if err := session.Start(ctx); err != nil {
			return err
		}
		defer session.Stop()
	}

	ctl, err := ipc.StartServer(cfg.SocketPath, controlHandler(ctx, asst, st, session))
	if err != nil {
		return err
	}
	defer ctl.Close()

	srv := &http.Server{Addr: cfg.Listen, Handler: br.Handler()}
	go func() {
		log.Info("Listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
			done <- err
		}
	}()

	log.Info("Boot up - successful", "source", cfg.Source, "media", cfg.Media, "matcher", cfg.Matcher)

	err = <-done
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if local != nil {
		local.Wait()
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	if cfg.DBPath == "" {
		st = store.NewMemory()
	} else if st, err = store.OpenSQLite(cfg.DBPath); err != nil {
		return nil, err
	}

	if cfg.Seed {
		n, err := store.Seed(ctx, st, store.DemoContacts)
		if err != nil {
			st.Close()
			return nil, err
		}
		log.Debug("Seeded contacts", "added", n)
	}
	return st, nil
}

func newMatcher(cfg *config.Config) (nlu.Matcher, error) {
	if cfg.Matcher != "llm" {
		return nlu.NewRuleMatcher(), nil
	}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 30*time.Second)
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)
	log.Debug("Loaded LLM matcher", "proxy", cfg.Proxy)
	return nlu.NewLLMMatcher(nlu.NewOpenAICompleter(client, cfg.Model)), nil
}
