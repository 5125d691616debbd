package gateway

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"file-relay/domain"
	"file-relay/infrastructure/grpc/client"
)

const welcomeMessage = "Welcome to the file storage API. Use /upload/ to upload files and /download/ to retrieve them."

// Handler translates HTTP requests into file service calls.
type Handler struct {
	log    *slog.Logger
	client *client.FileClient
}

func NewHandler(log *slog.Logger, c *client.FileClient) *Handler {
	return &Handler{log: log, client: c}
}

func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload accepts either the raw file as body or a multipart form with a
// "file" part, and streams it to the file service without buffering it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileName(w, r)
	if !ok {
		return
	}

	body, closeBody, err := uploadBody(r)
	if err != nil {
		h.log.Debug("Upload body rejected", "file_id", id, "error", err)
		writeError(w, r, http.StatusBadRequest, domain.Outcome{Code: domain.CodeInvalidArgument, Detail: err.Error()})
		return
	}
	defer closeBody()

	result, err := h.client.Upload(r.Context(), id, body)
	if err != nil {
		var outcome domain.Outcome
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &outcome):
			h.log.Warn("Upload failed", "file_id", id, "code", outcome.Code, "detail", outcome.Detail)
			writeOutcome(w, r, outcome)
		case errors.As(err, &tooLarge):
			writeError(w, r, http.StatusRequestEntityTooLarge,
				domain.Outcome{Code: domain.CodeInvalidArgument, Detail: "request body too large"})
		default:
			h.log.Warn("Upload body read failed", "file_id", id, "error", err)
			writeError(w, r, http.StatusBadRequest,
				domain.Outcome{Code: domain.CodeInvalidArgument, Detail: "could not read request body"})
		}
		return
	}

	h.log.Info("File upload completed", "file_id", id, "size", result.Size)
	writeJSON(w, r, http.StatusOK, uploadResponse{
		Message:  result.Outcome.Detail,
		FileName: string(id),
		Size:     result.Size,
		Digest:   result.Digest,
	})
}

// Download waits for the first frame before committing to a 200, so pre-check
// failures get a proper status. Once the body has started, a failure can
// only be signalled by aborting the connection.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.fileName(w, r)
	if !ok {
		return
	}

	stream, err := h.client.Download(r.Context(), id)
	if err != nil {
		var outcome domain.Outcome
		if !errors.As(err, &outcome) {
			outcome = domain.Outcome{Code: domain.CodeInternal, Detail: domain.DetailDownloadFailed}
		}
		h.log.Warn("Download rejected", "file_id", id, "code", outcome.Code, "detail", outcome.Detail)
		writeOutcome(w, r, outcome)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": string(id)}))
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	var sent int64
	for {
		payload, err := stream.Next()
		if errors.Is(err, io.EOF) {
			h.log.Info("File download completed", "file_id", id, "bytes", sent)
			return
		}
		if err != nil {
			h.log.Error("Download failed mid-stream, aborting response", "file_id", id, "bytes", sent, "error", err)
			panic(http.ErrAbortHandler)
		}
		n, err := w.Write(payload)
		sent += int64(n)
		if err != nil {
			h.log.Debug("Download client went away", "file_id", id, "bytes", sent, "error", err)
			return
		}
		_ = rc.Flush()
	}
}

func (h *Handler) fileName(w http.ResponseWriter, r *http.Request) (domain.FileID, bool) {
	name := r.URL.Query().Get("file_name")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, domain.Outcome{Code: domain.CodeInvalidArgument, Detail: "missing file_name"})
		return "", false
	}
	return domain.FileID(name), true
}

// uploadBody returns the reader over the file bytes of the request.
func uploadBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, errors.New("invalid multipart body")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("missing file part")
		}
		if err != nil {
			return nil, nil, errors.New("invalid multipart body")
		}
		if part.FormName() == "file" {
			return part, func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}
