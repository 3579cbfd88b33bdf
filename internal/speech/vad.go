package speech

import "math"

// Voice activity parameters. Silence runs of at least minSilenceMs are
// dropped before decoding to avoid wasted compute and hallucinated text on
// dead air; shorter pauses are kept so word boundaries survive. Fixed policy,
// not user-configurable.
const (
	vadFrameMs   = 20
	minSilenceMs = 500
	silenceRMS   = 0.01
)

// trimSilence removes silence runs of minSilenceMs or longer from the sample
// stream, preserving the chronological order of the remaining audio.
func trimSilence(samples []float32, sampleRate int) []float32 {
	frameLen := sampleRate * vadFrameMs / 1000
	if frameLen == 0 || len(samples) < frameLen {
		return samples
	}
	minSilenceFrames := minSilenceMs / vadFrameMs

	numFrames := len(samples) / frameLen
	silent := make([]bool, numFrames)
	for i := 0; i < numFrames; i++ {
		silent[i] = frameRMS(samples[i*frameLen:(i+1)*frameLen]) < silenceRMS
	}

	out := make([]float32, 0, len(samples))
	i := 0
	for i < numFrames {
		if !silent[i] {
			out = append(out, samples[i*frameLen:(i+1)*frameLen]...)
			i++
			continue
		}
		// Measure the silence run
		j := i
		for j < numFrames && silent[j] {
			j++
		}
		if j-i < minSilenceFrames {
			out = append(out, samples[i*frameLen:j*frameLen]...)
		}
		i = j
	}

	// Keep the partial tail frame
	out = append(out, samples[numFrames*frameLen:]...)
	return out
}

// frameRMS computes the root mean square amplitude of one frame
func frameRMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
