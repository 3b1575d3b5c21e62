package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/metrics"
)

// IngestConfig wires an IngestHandler to its collaborators.
type IngestConfig struct {
	Authenticator *auth.Authenticator
	Objects       ObjectStore
	Documents     DocumentStore
	// Images resolves mid journey tasks. Defaults to the public GoJourney API.
	Images ImageFetcher
	// RateLimiter is optional; nil disables per-IP limiting.
	RateLimiter  *IPRateLimiter
	MaxBodyBytes int64
	Log          *slog.Logger
}

// IngestHandler serves the validator upload routes.
type IngestHandler struct {
	auth      *auth.Authenticator
	objects   ObjectStore
	documents DocumentStore
	images    ImageFetcher
	limiter   *IPRateLimiter
	maxBody   int64
	log       *slog.Logger
}

// NewIngestHandler validates cfg and creates the handler.
func NewIngestHandler(cfg *IngestConfig) (*IngestHandler, error) {
	switch {
	case cfg.Authenticator == nil:
		return nil, errors.New("ingest: authenticator is required")
	case cfg.Objects == nil:
		return nil, errors.New("ingest: object store is required")
	case cfg.Documents == nil:
		return nil, errors.New("ingest: document store is required")
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	images := cfg.Images
	if images == nil {
		images = NewGoJourneyClient(log)
	}

	return &IngestHandler{
		auth:      cfg.Authenticator,
		objects:   cfg.Objects,
		documents: cfg.Documents,
		images:    images,
		limiter:   cfg.RateLimiter,
		maxBody:   cfg.MaxBodyBytes,
		log:       log,
	}, nil
}

// RegisterRoutes registers the upload routes on r.
func (h *IngestHandler) RegisterRoutes(r chi.Router) {
	h.post(r, "/upload-base64-item", auth.UploadEndpoint, h.handleUploadBase64)
	h.post(r, "/upload-mid-journey-item", auth.UploadEndpoint, h.handleUploadMidJourney)
	h.post(r, "/upload-llm-item", auth.UploadEndpoint, h.handleUploadLLM)
	h.post(r, "/store-miner-info", auth.StoreEndpoint, h.handleStoreMinerInfo)
}

func (h *IngestHandler) post(r chi.Router, path string, ep auth.Endpoint, fn http.HandlerFunc) {
	chain := []func(http.Handler) http.Handler{instrument(path)}
	if h.limiter != nil {
		chain = append(chain, h.limiter.Middleware(path))
	}
	chain = append(chain, h.auth.Middleware(ep, h.maxBody))
	r.With(chain...).Post(path, fn)
}

func instrument(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.Uploads.WithLabelValues(route, strconv.Itoa(status)).Inc()
			metrics.UploadDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

func (h *IngestHandler) handleUploadBase64(w http.ResponseWriter, r *http.Request) {
	var item Base64Item
	if err := decodeItem(r, &item); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data, err := DecodeBase64Image(item.Image)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to upload image", err)
		return
	}

	if err := h.storeImage(r.Context(), data, item.Metadata); err != nil {
		h.log.Error("Failed to store image", "route", r.URL.Path, "err", err)
		writeMessage(w, statusFor(err), "Failed to upload image", err)
		return
	}
	writeMessage(w, http.StatusOK, "Image uploaded successfully", nil)
}

func (h *IngestHandler) handleUploadMidJourney(w http.ResponseWriter, r *http.Request) {
	var item MidJourneyItem
	if err := decodeItem(r, &item); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	taskID, _ := item.Metadata["task_id"].(string)
	if taskID == "" {
		writeMessage(w, http.StatusBadRequest, "Failed to upload item", ErrMissingTaskID)
		return
	}

	data, err := h.images.FetchImage(r.Context(), taskID)
	if err != nil {
		h.log.Warn("Failed to fetch GoJourney image", "task_id", taskID, "err", err)
		writeMessage(w, http.StatusBadGateway, "Failed to upload item", err)
		return
	}

	if err := h.storeImage(r.Context(), data, item.Metadata); err != nil {
		h.log.Error("Failed to store image", "route", r.URL.Path, "task_id", taskID, "err", err)
		writeMessage(w, statusFor(err), "Failed to upload item", err)
		return
	}
	writeMessage(w, http.StatusOK, "Item uploaded successfully", nil)
}

func (h *IngestHandler) handleUploadLLM(w http.ResponseWriter, r *http.Request) {
	var item LLMItem
	if err := decodeItem(r, &item); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc := maps.Clone(item.Metadata)
	if doc == nil {
		doc = make(map[string]any)
	}
	doc["input_prompt"] = item.InputPrompt
	doc["output_prompt"] = item.OutputPrompt

	if _, err := h.documents.InsertOne(r.Context(), TextsCollection, doc); err != nil {
		h.log.Error("Failed to store text item", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to upload item", err)
		return
	}
	writeMessage(w, http.StatusOK, "Item uploaded successfully", nil)
}

func (h *IngestHandler) handleStoreMinerInfo(w http.ResponseWriter, r *http.Request) {
	var item MinerInfoItem
	if err := decodeItem(r, &item); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc := map[string]any{
		"uid":        item.UID,
		"info":       item.Info,
		"updated_at": time.Now().Unix(),
	}
	if err := h.documents.Upsert(r.Context(), MinerInfoCollection, strconv.FormatInt(item.UID, 10), doc); err != nil {
		h.log.Error("Failed to store miner info", "uid", item.UID, "err", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to store miner info", err)
		return
	}
	writeMessage(w, http.StatusOK, "Miner info stored successfully", nil)
}

// storeImage converts data to JPEG, uploads it under a random key and
// records metadata with the object location.
func (h *IngestHandler) storeImage(ctx context.Context, data []byte, metadata map[string]any) error {
	jpg, err := ToJPEG(data)
	if err != nil {
		return err
	}

	key := uuid.NewString() + ".jpg"
	if _, err := h.objects.PutObject(ctx, key, jpg, "image/jpeg"); err != nil {
		return err
	}

	doc := maps.Clone(metadata)
	if doc == nil {
		doc = make(map[string]any)
	}
	doc["key"] = key
	doc["bucket"] = h.objects.Bucket()

	if _, err := h.documents.InsertOne(ctx, ImagesCollection, doc); err != nil {
		return fmt.Errorf("recording %s: %w", key, err)
	}
	h.log.Debug("Stored image", "key", key, "bytes", len(jpg))
	return nil
}

func statusFor(err error) int {
	if errors.Is(err, ErrInvalidImage) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeItem(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string, err error) {
	resp := &MessageResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
