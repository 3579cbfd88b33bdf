package speech

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/zeozeozeo/gomplerate"

	"github.com/quenby/voicegate/pkg/logger"
)

// Max Opus frame size (120ms at 48kHz)
const maxOpusFrameSize = 5760

// decoder converts uploaded audio files to 16 kHz mono float32 samples, the
// format every engine consumes.
type decoder struct {
	ffmpegPath string
	logger     *logger.Logger
}

func newDecoder(ffmpegPath string, log *logger.Logger) *decoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &decoder{
		ffmpegPath: ffmpegPath,
		logger:     log.Named("audio-decoder"),
	}
}

// DecodeFile converts an audio file to 16 kHz mono float32 samples.
// WAV files are parsed in pure Go; OGG/Opus voice notes (browser and
// messenger recordings) are decoded with ffmpeg when present, falling back to
// a pure Go Opus decoder; everything else requires ffmpeg.
func (d *decoder) DecodeFile(path string) ([]float32, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".wav":
		samples, err := d.decodeWAV(path)
		if err == nil {
			return samples, nil
		}
		d.logger.Debug("Pure Go WAV decode failed, trying ffmpeg", logger.Error(err))
		if d.ffmpegAvailable() {
			return d.decodeWithFFmpeg(path)
		}
		return nil, err

	case ".ogg", ".opus", ".oga":
		// The pure Go Opus decoder has limited codec support, so prefer
		// ffmpeg when it is installed
		if d.ffmpegAvailable() {
			return d.decodeWithFFmpeg(path)
		}
		samples, err := d.decodeOggOpusSafe(path)
		if err != nil {
			return nil, fmt.Errorf("OGG decoding failed (%v) - install ffmpeg for reliable audio conversion", err)
		}
		return samples, nil

	default:
		if d.ffmpegAvailable() {
			return d.decodeWithFFmpeg(path)
		}
		return nil, fmt.Errorf("unsupported audio format %s (install ffmpeg for non-WAV/OGG files)", ext)
	}
}

// decodeWAV parses a RIFF/WAVE file with 16-bit PCM samples
func (d *decoder) decodeWAV(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var sampleRate, channels, bitsPerSample, format int
	var pcm []byte

	// Walk the chunk list for "fmt " and "data"
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("truncated fmt chunk")
			}
			format = int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word-aligned
		off = body + size + (size & 1)
	}

	if format != 1 || bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported WAV encoding (format %d, %d bits)", format, bitsPerSample)
	}
	if channels == 0 || sampleRate == 0 || len(pcm) == 0 {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}

	samples := bytesToInt16(pcm)
	if channels > 1 {
		samples = toMono(samples, channels)
	}
	if sampleRate != SampleRate {
		samples = d.resample(samples, sampleRate, SampleRate)
	}

	d.logger.Debug("Decoded WAV",
		logger.Int("sample_rate", sampleRate),
		logger.Int("channels", channels),
		logger.Int("samples", len(samples)))

	return int16ToFloat32(samples), nil
}

// decodeOggOpusSafe wraps decodeOggOpus with panic recovery; the pure Go
// decoder can panic on malformed files.
func (d *decoder) decodeOggOpusSafe(path string) (samples []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Opus decoder panicked, recovered", logger.Any("panic", r))
			samples = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return d.decodeOggOpus(path)
}

// decodeOggOpus decodes an OGG/Opus file to 16 kHz mono float32 in pure Go
func (d *decoder) decodeOggOpus(path string) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	ogg, header, err := oggreader.NewWith(file)
	if err != nil {
		return nil, fmt.Errorf("parse OGG container: %w", err)
	}

	sampleRate := int(header.SampleRate)
	channels := int(header.Channels)

	opusDecoder := opus.NewDecoder()
	outBuf := make([]byte, maxOpusFrameSize*channels*2)

	var allSamples []int16
	for {
		segments, _, err := ogg.ParseNextPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse OGG page: %w", err)
		}

		// Each segment is one Opus packet
		for _, segment := range segments {
			if len(segment) == 0 {
				continue
			}
			_, isStereo, err := opusDecoder.Decode(segment, outBuf)
			if err != nil {
				d.logger.Debug("Skipping undecodable Opus packet", logger.Error(err))
				continue
			}
			packetChannels := 1
			if isStereo {
				packetChannels = 2
			}
			pcm := bytesToInt16(outBuf)
			if packetChannels > 1 {
				pcm = toMono(pcm, packetChannels)
			}
			allSamples = append(allSamples, pcm...)
		}
	}

	if len(allSamples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", path)
	}

	if sampleRate != SampleRate {
		allSamples = d.resample(allSamples, sampleRate, SampleRate)
	}
	return int16ToFloat32(allSamples), nil
}

// decodeWithFFmpeg shells out to ffmpeg to produce raw 16 kHz mono PCM
func (d *decoder) decodeWithFFmpeg(inputPath string) ([]float32, error) {
	tmpFile, err := os.CreateTemp("", "voicegate-decode-*.raw")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cmd := exec.Command(d.ffmpegPath,
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-y",
		tmpPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		d.logger.Debug("ffmpeg output", logger.String("output", string(output)))
		return nil, fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	rawData, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read converted audio: %w", err)
	}
	return int16ToFloat32(bytesToInt16(rawData)), nil
}

// ffmpegAvailable checks whether the configured ffmpeg executable exists
func (d *decoder) ffmpegAvailable() bool {
	_, err := exec.LookPath(d.ffmpegPath)
	return err == nil
}

// resample converts audio between sample rates using gomplerate
func (d *decoder) resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate {
		return samples
	}
	resampler, err := gomplerate.NewResampler(1, fromRate, toRate)
	if err != nil {
		d.logger.Warn("Resampler creation failed, using source rate",
			logger.Int("from", fromRate), logger.Int("to", toRate), logger.Error(err))
		return samples
	}
	return resampler.ResampleInt16(samples)
}

// bytesToInt16 reinterprets little-endian PCM bytes as int16 samples
func bytesToInt16(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return samples
}

// toMono averages interleaved channels down to one
func toMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	mono := make([]int16, len(samples)/channels)
	for i := 0; i < len(mono); i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono
}

// int16ToFloat32 converts int16 samples to float32 normalized to [-1, 1]
func int16ToFloat32(samples []int16) []float32 {
	result := make([]float32, len(samples))
	for i, s := range samples {
		result[i] = float32(s) / 32768.0
	}
	return result
}
