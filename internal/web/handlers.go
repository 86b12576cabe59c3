package web

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/core"
)

// handleHealth reports liveness and, when limited, operation slots.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if l := s.service.Limiter(); l != nil {
		body["operations"] = l.Status()
	}
	respondOK(w, r, body)
}

// handlePreview returns the first n rows of an uploaded file.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in, err := readInput(r, "file", "")
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Preview(ctx, in, parseIntParam(r, "n", 0))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleSummary returns shape, types and missing counts of a file.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in, err := readInput(r, "file", "")
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Summary(ctx, in)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleClean runs the cleaning pipeline with options from the form.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in, err := readInput(r, "file", "")
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	opts, err := clean.ParseOptions(cleanOverrides(r))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Clean(ctx, in, opts, r.FormValue("format"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleDiffMetadata lists the numeric columns of two files.
func (s *Server) handleDiffMetadata(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in1, in2, err := readPair(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.DiffMetadata(ctx, in1, in2)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleDiffReport compares two files and returns the discrepancy list.
func (s *Server) handleDiffReport(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in1, in2, err := readPair(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	m, err := parseMapping(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.DiffReport(ctx, in1, in2, m)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleDiffHighlight compares two files and stores a highlighted workbook.
func (s *Server) handleDiffHighlight(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in1, in2, err := readPair(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	m, err := parseMapping(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.DiffHighlight(ctx, in1, in2, m)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleCombine concatenates or merges two files.
func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, 0)
		return
	}
	in1, in2, err := readPair(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Combine(ctx, in1, in2, r.FormValue("method"), formList(r, "on"), r.FormValue("format"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	respondOK(w, r, res)
}

// handleDownload serves a file created by an earlier operation.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	store := s.service.Artifacts()
	if store == nil {
		respondError(w, r, core.ErrArtifactNotFound, 0)
		return
	}

	name := chi.URLParam(r, "name")
	path, err := store.Path(name)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
