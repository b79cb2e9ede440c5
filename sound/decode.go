// Package sound plays short sound effects from WAV and MP3 files.
package sound

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFile is returned for files that are neither WAV nor MP3.
var ErrUnsupportedFile = errors.New("unsupported sound file")

// PCM is decoded audio as interleaved signed 16-bit samples.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the number of sample frames.
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// DecodeFile decodes a WAV or MP3 file, chosen by extension.
func DecodeFile(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
}

func decodeWAV(r io.ReadSeeker) (*PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return fromIntBuffer(buf, int(dec.BitDepth))
}

// fromIntBuffer narrows the decoder's samples to 16 bits.
func fromIntBuffer(buf *audio.IntBuffer, bitDepth int) (*PCM, error) {
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("wav: missing format")
	}
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}

	p := &PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    make([]int16, len(buf.Data)),
	}
	for i, v := range buf.Data {
		switch {
		case bitDepth == 8:
			// 8-bit WAV is unsigned
			p.Samples[i] = int16((v - 128) << 8)
		case bitDepth > 16:
			p.Samples[i] = int16(v >> (bitDepth - 16))
		default:
			p.Samples[i] = int16(v)
		}
	}
	return p, nil
}

// decodeMP3 reads the whole stream. go-mp3 always produces 16-bit little
// endian stereo.
func decodeMP3(r io.Reader) (*PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	p := &PCM{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Samples:    make([]int16, len(raw)/2),
	}
	for i := range p.Samples {
		p.Samples[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return p, nil
}
