package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// TargetRate is what the recognizer expects.
const TargetRate = 16000

type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOgg Format = "ogg"
)

var ErrUnsupported = errors.New("unsupported audio format")

// Clip is decoded audio, interleaved when Channels > 1.
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Mono16k downmixes and resamples the clip for the recognizer.
func (c Clip) Mono16k() []float32 {
	return Resample(Downmix(c.Samples, c.Channels), c.SampleRate, TargetRate)
}

// DetectFormat looks at the file extension first and the magic bytes second.
func DetectFormat(name string, header []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga", ".opus":
		return FormatOgg, nil
	}

	switch {
	case bytes.HasPrefix(header, []byte("RIFF")):
		return FormatWAV, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatOgg, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// LoadFile decodes a WAV, MP3 or Ogg (Vorbis or Opus) file into mono 16 kHz samples.
func LoadFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 4)
	n, _ := io.ReadFull(f, header)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	format, err := DetectFormat(path, header[:n])
	if err != nil {
		return nil, err
	}
	clip, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip.Mono16k(), nil
}

func Decode(r io.ReadSeeker, format Format) (Clip, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOgg:
		clip, err := decodeVorbis(r)
		if err == nil {
			return clip, nil
		}
		if _, serr := r.Seek(0, io.SeekStart); serr != nil {
			return Clip{}, serr
		}
		clip, oerr := decodeOpus(r)
		if oerr != nil {
			return Clip{}, fmt.Errorf("ogg is neither vorbis (%v) nor opus: %w", err, oerr)
		}
		return clip, nil
	}
	return Clip{}, fmt.Errorf("%w: %q", ErrUnsupported, format)
}

func decodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return Clip{}, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	clip := Clip{
		Samples:    IntsToFloat(buf.Data, depth),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}
	if buf.Format != nil {
		clip.SampleRate = buf.Format.SampleRate
		clip.Channels = buf.Format.NumChannels
	}
	return clip, nil
}

func decodeMP3(r io.Reader) (Clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return Clip{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, err
	}
	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, samples); err != nil {
		return Clip{}, err
	}
	// go-mp3 always emits 16-bit stereo.
	return Clip{Samples: Int16sToFloat(samples), SampleRate: dec.SampleRate(), Channels: 2}, nil
}

func decodeVorbis(r io.Reader) (Clip, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return Clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return Clip{}, errors.New("invalid vorbis stream")
	}
	return Clip{Samples: pcm, SampleRate: format.SampleRate, Channels: format.Channels}, nil
}

// decodeOpus reads Ogg Opus, which always decodes at 48 kHz.
func decodeOpus(r io.ReadSeeker) (Clip, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return Clip{}, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var out []float32
	buf := make([]int16, 24000*ch)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			out = append(out, Int16sToFloat(buf[:n*ch])...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Clip{}, err
		}
	}
	if len(out) == 0 {
		return Clip{}, errors.New("empty opus stream")
	}
	return Clip{Samples: out, SampleRate: 48000, Channels: ch}, nil
}

func IntsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(math.Max(-1, math.Min(1, float64(v)*scale)))
	}
	return out
}

func Int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// Downmix averages interleaved channels into one.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float32
		for _, x := range in[i*channels : (i+1)*channels] {
			sum += x
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts between rates with linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1
	for i := range out {
		pos := float64(i) / ratio
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
