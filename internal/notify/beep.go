package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Chime plays a short mp3 cue. The file is decoded once and replayed from memory.
type Chime struct {
	mu     sync.Mutex
	buffer *beep.Buffer
}

var speakerOnce sync.Once

func LoadChime(path string) (*Chime, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}

	return &Chime{buffer: buf}, nil
}

// Play blocks until the cue has been played.
func (c *Chime) Play() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(c.buffer.Streamer(0, c.buffer.Len()), beep.Callback(func() {
		close(done)
	})))
	<-done
}

// Times plays the cue n times with gap between plays.
func (c *Chime) Times(n int, gap time.Duration) {
	for i := 0; i < n; i++ {
		if i > 0 {
			time.Sleep(gap)
		}
		c.Play()
	}
}
