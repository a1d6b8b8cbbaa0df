package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"handsfree/internal/audio"
	"handsfree/internal/logging"
	"handsfree/internal/recognition"
	"handsfree/pkg/audioconv"
	"handsfree/pkg/protocol"
	"handsfree/pkg/stt"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	url := cli.StringP("url", "u", "ws://localhost:8092/ws", "Daemon websocket url")
	model := cli.StringP("model", "m", "models/ggml-base.en.bin", "Whisper model path")
	file := cli.StringP("file", "f", "", "Transcribe an audio file once instead of the microphone")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logging.Setup(os.Stdout, *logLevel)
	_ = godotenv.Load(*envFile)
	if v := os.Getenv("HANDSFREE_URL"); v != "" && !cli.CommandLine.Changed("url") {
		*url = v
	}

	log.Info("Starting microphone shard")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	whisper, err := stt.NewTranscriber(*model)
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	client, err := protocol.Dial(ctx, *url, protocol.RoleRecognizer, 2*time.Second)
	if err != nil {
		log.Error("Failed to connect to daemon", "url", *url, "err", err)
		os.Exit(1)
	}
	defer client.Close()
	go drain(ctx, client)

	if *file != "" {
		if err := replay(ctx, client, whisper, *file); err != nil {
			log.Error("Replay failed", "file", *file, "err", err)
			os.Exit(1)
		}
		return
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	src := recognition.NewMicSource(rec, whisper, stt.CommandOptions())
	log.Info("Listening")
	for ctx.Err() == nil {
		err := src.Listen(ctx, func(r recognition.Result) {
			log.Info("Heard", "text", r.Text)
			send(ctx, client, protocol.Frame{Kind: protocol.KindResult, Text: r.Text, Final: r.Final})
		})
		if err == nil || ctx.Err() != nil {
			continue
		}
		if errors.Is(err, recognition.ErrNoSpeech) {
			log.Debug("No speech")
			continue
		}
		log.Warn("Recognition failed", "err", err)
		send(ctx, client, protocol.Frame{Kind: protocol.KindError, Code: err.Error()})
		time.Sleep(300 * time.Millisecond)
	}
}

// replay transcribes a recorded file and sends it as one final result.
func replay(ctx context.Context, client *protocol.Client, tr *stt.Transcriber, path string) error {
	pcm, err := audioconv.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := tr.TranscribePCM(ctx, pcm, stt.CommandOptions())
	if err != nil {
		return err
	}
	text := recognition.CleanTranscript(res.Text)
	log.Info("Transcribed", "text", text, "lang", res.Language)
	if text == "" {
		return recognition.ErrNoSpeech
	}
	return client.Send(ctx, protocol.Frame{Kind: protocol.KindResult, Text: text, Final: true})
}

func send(ctx context.Context, client *protocol.Client, f protocol.Frame) {
	if err := client.Send(ctx, f); err != nil {
		log.Error("Failed to send", "kind", f.Kind, "err", err)
	}
}

// drain keeps the connection serviced and logs daemon status changes.
func drain(ctx context.Context, client *protocol.Client) {
	for ctx.Err() == nil {
		f, err := client.Read()
		if err != nil {
			if protocol.IsClosed(err) || ctx.Err() != nil {
				return
			}
			log.Debug("Read failed", "err", err)
			time.Sleep(time.Second)
			continue
		}
		if f.Kind == protocol.KindTranscript {
			log.Debug("Daemon", "payload", string(f.Payload))
		}
	}
}
