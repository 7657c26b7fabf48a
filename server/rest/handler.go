package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/mrosello/videograb/server/common"
	"github.com/mrosello/videograb/server/internal/jobstore"
)

type Handler struct {
	service *Service
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Health is the liveness placeholder.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"free_space": h.service.FreeSpace(),
	})
}

func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	info, err := h.service.VideoInfo(r.Context(), req.URL)
	if err != nil {
		slog.Error("video info lookup failed", slog.String("url", req.URL), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch video information")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) DownloadSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		FormatId string `json:"format_id"`
		Title    string `json:"title"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.URL == "" || req.FormatId == "" {
		writeError(w, http.StatusBadRequest, "URL and format_id are required")
		return
	}

	title := common.SanitizeFilename(req.Title)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mp4"`, title))
	w.Header().Set("Content-Type", "video/mp4")

	// from here on headers are sent: a failure can only cut the stream short
	if err := h.service.StreamDownload(r.Context(), req.URL, req.FormatId, w); err != nil {
		slog.Error("sync download failed", slog.String("url", req.URL), slog.Any("err", err))
	}
}

func (h *Handler) DownloadAsync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL    string `json:"url"`
		Format string `json:"format"`
		Title  string `json:"title"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	id, err := h.service.StartDownload(req.URL, req.Format, req.Title)
	if errors.Is(err, common.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, "URL and format are required")
		return
	}
	if err != nil {
		slog.Error("failed to start download", slog.String("url", req.URL), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Failed to start download")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"jobId": id})
}

// DownloadStatus streams a job's events as server-sent events until the
// client hangs up.
func (h *Handler) DownloadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.service.Subscribe(id)
	defer sub.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DownloadStatusWS serves the same event feed over a websocket.
func (h *Handler) DownloadStatusWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	sub := h.service.Subscribe(id)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// drain the read side to notice the peer going away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.service.Job(id)
	if err != nil || job.Status != jobstore.StatusComplete {
		writeError(w, http.StatusNotFound, "File not ready or not found.")
		return
	}

	fd, err := os.Open(job.OutputPath)
	if err != nil {
		slog.Error("completed output missing", slog.String("id", id), slog.Any("err", err))
		writeError(w, http.StatusNotFound, "File not ready or not found.")
		return
	}
	defer fd.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mp4"`, job.Title))
	w.Header().Set("Content-Type", "video/mp4")
	io.Copy(w, fd)
}

func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Jobs(r.Context()))
}

func (h *Handler) Archived(w http.ResponseWriter, r *http.Request) {
	entities, err := h.service.Archived(r.Context())
	if err != nil {
		slog.Error("failed to list archive", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Failed to list archive")
		return
	}

	writeJSON(w, http.StatusOK, entities)
}
