package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/WessleyAI/cocktails/engine/catalog"
	"github.com/WessleyAI/cocktails/engine/tools"
)

type health struct {
	catalog  *catalog.Catalog
	breakers func() map[string]string // nil when the index is unavailable
}

func newMux(reg *tools.Registry, h health, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(h))
	mux.HandleFunc("GET /api/tools", handleListTools(reg))
	mux.HandleFunc("POST /api/tools/{name}", handleCallTool(reg, logger))
	return mux
}

func handleHealth(h health) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"status":      "ok",
			"cocktails":   h.catalog.Len(),
			"ingredients": len(h.catalog.Ingredients()),
			"skipped":     len(h.catalog.Skipped()),
			"index":       "unavailable",
		}
		if h.breakers != nil {
			body["index"] = "ready"
			body["breakers"] = h.breakers()
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func handleListTools(reg *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tools": reg.Tools()})
	}
}

func handleCallTool(reg *tools.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, tools.CodeInvalidQuery, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, tools.CodeInvalidQuery, "invalid request body")
			return
		}

		result, err := reg.Call(r.Context(), name, body)
		if err != nil {
			code := tools.ErrorCode(err)
			status := statusFor(code)
			if status >= http.StatusInternalServerError {
				logger.Error("tool call failed", "tool", name, "err", err)
			}
			writeError(w, status, code, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func statusFor(code string) int {
	switch code {
	case tools.CodeInvalidQuery:
		return http.StatusBadRequest
	case tools.CodeUnknownTool:
		return http.StatusNotFound
	case tools.CodeRetrievalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
