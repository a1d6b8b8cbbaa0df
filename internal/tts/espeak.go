package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang)
{
	if (!text)
	{ return -1; }

	espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
	espeak_VOICE specs = { .languages = lang };
	espeak_SetVoiceByProperties(&specs);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	log "log/slog"
	"unsafe"
)

// Speak voices text synchronously in the given espeak language.
func Speak(text, lang string) error {
	if text == "" {
		return nil
	}
	if lang == "" {
		lang = "en"
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	rc := C.espeak_say(ctext, clang)
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

// Speaker voices messages in order on its own goroutine. When it falls behind,
// new messages are dropped rather than delaying the caller.
type Speaker struct {
	lang  string
	queue chan string
}

func NewSpeaker(lang string) *Speaker {
	return &Speaker{lang: lang, queue: make(chan string, 8)}
}

func (s *Speaker) Say(text string) {
	select {
	case s.queue <- text:
	default:
		log.Debug("Speaker busy, dropping", "text", text)
	}
}

func (s *Speaker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.queue:
			if err := Speak(text, s.lang); err != nil {
				log.Error("Failed to voice out", "err", err)
			}
		}
	}
}
