package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/quenby/voicegate/internal/relay"
	"github.com/quenby/voicegate/internal/speech"
	"github.com/quenby/voicegate/pkg/logger"
)

// transcriptionResponse is the /transcribe response body: the structured
// result, optionally with the agent's reply embedded
type transcriptionResponse struct {
	speech.Result
	AgentReply []relay.Message `json:"agent_reply,omitempty"`
}

// TranscribeAudio handles POST /transcribe
func (h *Handler) TranscribeAudio(w http.ResponseWriter, r *http.Request) {
	h.handleTranscription(w, r, "")
}

// TranslateAudio handles POST /translate: the same pipeline with the task
// forced to translate
func (h *Handler) TranslateAudio(w http.ResponseWriter, r *http.Request) {
	h.handleTranscription(w, r, speech.TaskTranslate)
}

func (h *Handler) handleTranscription(w http.ResponseWriter, r *http.Request, forceTask string) {
	// Preconditions, checked in order. The adapter gate comes first so a
	// degraded service answers consistently regardless of payload.
	if !h.transcriber.Ready() {
		WriteJSON(w, http.StatusInternalServerError, speech.Result{
			Success: false,
			Error:   "model not loaded",
		})
		return
	}

	if err := r.ParseMultipartForm(int64(h.config.Server.MaxUploadMB) << 20); err != nil {
		WriteJSON(w, http.StatusBadRequest, speech.Result{
			Success: false,
			Error:   "no audio file provided",
		})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, speech.Result{
			Success: false,
			Error:   "no audio file provided",
		})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		WriteJSON(w, http.StatusBadRequest, speech.Result{
			Success: false,
			Error:   "no audio file selected",
		})
		return
	}

	// Stage the upload to a scoped temp file. The deferred removal is the
	// hard cleanup invariant: no temporary audio file outlives the request.
	tmpPath, err := h.stageUpload(file, header.Filename)
	if err != nil {
		h.logger.Error("Failed to stage uploaded audio", logger.Error(err))
		WriteJSON(w, http.StatusInternalServerError, speech.Result{
			Success: false,
			Error:   "failed to stage audio file",
		})
		return
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("Failed to delete temporary audio file",
				logger.String("path", tmpPath), logger.Error(err))
		}
	}()

	opts := parseOptions(r, forceTask)

	h.logger.Info("Transcription request",
		logger.String("filename", header.Filename),
		logger.String("task", opts.Task),
		logger.String("language", opts.Language))

	result := h.transcriber.Transcribe(tmpPath, opts)

	resp := transcriptionResponse{Result: result}
	if result.Success && result.Text != "" {
		// Record before relaying so the log reflects the transcript even if
		// the agent call fails
		h.history.Record(result.Text)
		if h.relay != nil {
			resp.AgentReply = h.relay.Send(result.Text)
		}
	}

	// Engine-level failures are part of the structured result, not a
	// transport fault
	WriteJSON(w, http.StatusOK, resp)
}

// stageUpload copies the multipart part to a temp file, preserving the
// upload's extension so the decoder can dispatch on it
func (h *Handler) stageUpload(file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".wav"
	}

	tmp, err := os.CreateTemp(h.config.Speech.TempDir, "voicegate-upload-*"+ext)
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// parseOptions resolves the optional form parameters to fully populated
// Options. Unrecognized task values pass through untouched; the engine is the
// source of truth for legality.
func parseOptions(r *http.Request, forceTask string) speech.Options {
	opts := speech.DefaultOptions()

	if v := r.FormValue("language"); v != "" {
		opts.Language = v
	}
	if v := r.FormValue("task"); v != "" {
		opts.Task = v
	}
	if forceTask != "" {
		opts.Task = forceTask
	}
	if v := r.FormValue("temperature"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			opts.Temperature = f
		}
	}
	if v := r.FormValue("word_timestamps"); v != "" {
		opts.WordTimestamps = strings.EqualFold(v, "true")
	}
	opts.Prompt = r.FormValue("prompt")

	return opts
}
