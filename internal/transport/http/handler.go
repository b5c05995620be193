package http

import (
	"bytes"
	"context"
	"encoding/json"
	"geonews/internal/domain"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
)

type recordGetter interface {
	GetRecords(ctx context.Context, limit int) ([]domain.Record, error)
}

// Limits задает лимиты выдачи записей.
type Limits struct {
	Default int
	Max     int
}

type Handler struct {
	log     *slog.Logger
	records recordGetter
	limits  Limits
	tmpl    *template.Template
}

func NewHandler(log *slog.Logger, getter recordGetter, limits Limits) (*Handler, error) {
	tmpl, err := template.ParseFS(webFS, "web/templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		log:     log,
		records: getter,
		limits:  limits,
		tmpl:    tmpl,
	}, nil
}

type indexData struct {
	Records []domain.Record
	Limit   int
}

// index - хендлер для GET /: страница с последними записями.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/index"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	records, err := h.records.GetRecords(r.Context(), h.limits.Default)
	if err != nil {
		log.Error("Failed to get records", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, indexData{Records: records, Limit: h.limits.Default}); err != nil {
		log.Error("Failed to render index", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// getHeadlines - хендлер для GET /api/headlines.
func (h *Handler) getHeadlines(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getHeadlines"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	limit := h.limits.Default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		if limit > h.limits.Max {
			limit = h.limits.Max
		}
	}
	records, err := h.records.GetRecords(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get records", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
