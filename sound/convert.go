package sound

// OutputSampleRate is the rate of the shared playback context.
const OutputSampleRate = 48000

// ToStereo48k resamples p to 48kHz stereo using linear interpolation and
// returns little-endian signed 16-bit bytes. Mono is duplicated to both
// channels; extra channels beyond two are dropped.
func ToStereo48k(p *PCM) []byte {
	frames := p.Frames()
	if frames == 0 || p.SampleRate <= 0 {
		return nil
	}

	outFrames := int(int64(frames) * OutputSampleRate / int64(p.SampleRate))
	out := make([]byte, 0, outFrames*4)

	sample := func(frame, ch int) int16 {
		if ch >= p.Channels {
			ch = p.Channels - 1
		}
		return p.Samples[frame*p.Channels+ch]
	}

	step := float64(p.SampleRate) / OutputSampleRate
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		idx := int(pos)
		frac := pos - float64(idx)
		next := idx + 1
		if next >= frames {
			next = frames - 1
		}

		for ch := 0; ch < 2; ch++ {
			a, b := float64(sample(idx, ch)), float64(sample(next, ch))
			v := int16(a + (b-a)*frac)
			out = append(out, byte(v), byte(uint16(v)>>8))
		}
	}
	return out
}
