package speech

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/pkg/logger"
)

// fakeEngine lets adapter tests control engine behavior
type fakeEngine struct {
	out        *Output
	err        error
	calls      int
	gotOpts    Options
	gotSamples int
}

func (f *fakeEngine) Transcribe(samples []float32, opts Options) (*Output, error) {
	f.calls++
	f.gotOpts = opts
	f.gotSamples = len(samples)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeEngine) Name() string { return "fake" }
func (f *fakeEngine) Close() error { return nil }

func newTestAdapter(engine Engine, state State) *Adapter {
	log := logger.NewNop()
	return &Adapter{
		cfg:     config.SpeechConfig{Engine: "whispercpp", ModelSize: "base"},
		device:  DeviceCPU,
		compute: computeFormat(DeviceCPU),
		dec:     newDecoder("", log),
		logger:  log,
		state:   state,
		engine:  engine,
	}
}

// writeWAV writes a 16 kHz mono PCM16 WAV file with a square-wave tone
func writeWAV(t *testing.T, dir string, durationMs int) string {
	t.Helper()

	n := SampleRate * durationMs / 1000
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(16000)
		if i%2 == 1 {
			v = -16000
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	buf := make([]byte, 0, 44+len(pcm))
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}
	buf = append(buf, "RIFF"...)
	buf = append(buf, u32(uint32(36+len(pcm)))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(1)...) // mono
	buf = append(buf, u32(SampleRate)...)
	buf = append(buf, u32(SampleRate*2)...)
	buf = append(buf, u16(2)...)
	buf = append(buf, u16(16)...)
	buf = append(buf, "data"...)
	buf = append(buf, u32(uint32(len(pcm)))...)
	buf = append(buf, pcm...)

	path := filepath.Join(dir, "test.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestTranscribeNotReady(t *testing.T) {
	engine := &fakeEngine{}
	for _, state := range []State{StateUninitialized, StateLoading, StateUnavailable} {
		a := newTestAdapter(engine, state)
		res := a.Transcribe("ignored.wav", DefaultOptions())
		if res.Success {
			t.Errorf("state %s: expected failure", state)
		}
		if res.Error != "model not loaded" {
			t.Errorf("state %s: error = %q, want %q", state, res.Error, "model not loaded")
		}
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked %d times while not ready", engine.calls)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	engine := &fakeEngine{out: &Output{
		Segments: []Segment{
			{Text: " welcome to ", End: time.Second},
			{Text: "secure banking "},
		},
		Language:   "en",
		Confidence: 0.87,
	}}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 400)

	res := a.Transcribe(path, Options{Task: TaskTranscribe, Language: ""})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Text != "welcome to secure banking" {
		t.Errorf("Text = %q, want %q", res.Text, "welcome to secure banking")
	}
	if res.Language != "en" || res.LanguageName != "English" {
		t.Errorf("language = %q/%q, want en/English", res.Language, res.LanguageName)
	}
	if res.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", res.Confidence)
	}
	if res.Task != TaskTranscribe {
		t.Errorf("Task = %q, want %q", res.Task, TaskTranscribe)
	}
	if res.Error != "" {
		t.Errorf("Error populated alongside text: %q", res.Error)
	}
	// Rounded to 2 decimal places
	if scaled := res.ProcessingTime * 100; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		t.Errorf("ProcessingTime %v not rounded to 2 decimals", res.ProcessingTime)
	}
	if engine.gotSamples == 0 {
		t.Error("engine received no samples")
	}
}

func TestTranscribeUnknownLanguage(t *testing.T) {
	engine := &fakeEngine{out: &Output{
		Segments: []Segment{{Text: "hola"}},
		Language: "zz",
	}}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 100)

	res := a.Transcribe(path, DefaultOptions())
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.LanguageName != "Unknown" {
		t.Errorf("LanguageName = %q, want Unknown", res.LanguageName)
	}
}

func TestTranscribeConfidenceClamped(t *testing.T) {
	engine := &fakeEngine{out: &Output{
		Segments:   []Segment{{Text: "hi"}},
		Confidence: 1.5,
	}}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 100)

	res := a.Transcribe(path, DefaultOptions())
	if res.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want clamped 1.0", res.Confidence)
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("corrupt audio stream")}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 100)

	res := a.Transcribe(path, DefaultOptions())
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "corrupt audio stream" {
		t.Errorf("Error = %q, want engine message", res.Error)
	}
	if res.Text != "" {
		t.Errorf("Text populated alongside error: %q", res.Text)
	}
}

func TestTranscribeEmptyEngineOutput(t *testing.T) {
	// Empty engine output is not an error
	engine := &fakeEngine{out: &Output{}}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 100)

	res := a.Transcribe(path, DefaultOptions())
	if !res.Success {
		t.Fatalf("expected success on empty output, got error %q", res.Error)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestTranscribeUndecodableFile(t *testing.T) {
	engine := &fakeEngine{out: &Output{}}
	a := newTestAdapter(engine, StateReady)

	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("not audio at all"), 0644); err != nil {
		t.Fatal(err)
	}

	res := a.Transcribe(path, DefaultOptions())
	if res.Success {
		t.Fatal("expected failure on undecodable input")
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked %d times on undecodable input", engine.calls)
	}
}

func TestTranscribeDeterministicText(t *testing.T) {
	engine := &fakeEngine{out: &Output{
		Segments: []Segment{{Text: "check my balance"}},
		Language: "en",
	}}
	a := newTestAdapter(engine, StateReady)
	path := writeWAV(t, t.TempDir(), 200)
	opts := DefaultOptions()

	first := a.Transcribe(path, opts)
	second := a.Transcribe(path, opts)
	if first.Text != second.Text {
		t.Errorf("non-deterministic text: %q vs %q", first.Text, second.Text)
	}
}

func TestAdapterStateTransitions(t *testing.T) {
	a := newTestAdapter(nil, StateUninitialized)
	if a.Ready() {
		t.Error("uninitialized adapter reports ready")
	}
	a.setState(StateReady)
	if !a.Ready() {
		t.Error("ready adapter reports not ready")
	}
	if a.State().String() != "ready" {
		t.Errorf("State().String() = %q, want ready", a.State().String())
	}
}
