package web

// This file contains the form parsing shared by the operation handlers.

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/diff"
)

// multipartMemory is the part of a form kept in memory before spilling
// file parts to disk.
const multipartMemory = 32 << 20

// formFields that describe how to read a file rather than how to clean it.
var readFields = map[string]bool{
	"sep":         true,
	"encoding":    true,
	"sheet":       true,
	"header_rows": true,
	"format":      true,
}

// parseForm bounds the body and parses a multipart (or urlencoded) form.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// parseIntParam parses an integer form value with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := strings.TrimSpace(r.FormValue(name))
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// formList returns the values of a repeated field, also splitting
// comma-separated entries.
func formList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.Form[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// readInput reads the uploaded file in field together with its read
// options. suffix selects per-file options ("sep1", "encoding2"); the
// unsuffixed names apply when the suffixed ones are absent.
func readInput(r *http.Request, field, suffix string) (core.Input, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return core.Input{}, fmt.Errorf("%s: %w", field, core.ErrNoFile)
		}
		return core.Input{}, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.Input{}, fmt.Errorf("read %s: %w", field, err)
	}

	value := func(name string) string {
		if suffix != "" {
			if v := r.FormValue(name + suffix); v != "" {
				return v
			}
		}
		return r.FormValue(name)
	}

	return core.Input{
		Name:       header.Filename,
		Data:       data,
		Separator:  value("sep"),
		Encoding:   value("encoding"),
		Sheet:      value("sheet"),
		HeaderRows: parseIntParam(r, "header_rows"+suffix, parseIntParam(r, "header_rows", 0)),
	}, nil
}

// readPair reads file1 and file2.
func readPair(r *http.Request) (core.Input, core.Input, error) {
	in1, err := readInput(r, "file1", "1")
	if err != nil {
		return core.Input{}, core.Input{}, err
	}
	in2, err := readInput(r, "file2", "2")
	if err != nil {
		return core.Input{}, core.Input{}, err
	}
	return in1, in2, nil
}

// cleanOverrides collects every form field that is not a file or a read
// option. Unknown names are passed through so the option decoder can
// reject them.
func cleanOverrides(r *http.Request) map[string]string {
	out := make(map[string]string)
	for key, vals := range r.Form {
		if readFields[key] || len(vals) == 0 {
			continue
		}
		if r.MultipartForm != nil {
			if _, isFile := r.MultipartForm.File[key]; isFile {
				continue
			}
		}
		out[key] = strings.Join(vals, ",")
	}
	return out
}

// parseMapping reads the diff column mapping: a JSON "mapping" field, or
// repeated "columns" plus "primary_key" and "tolerance".
func parseMapping(r *http.Request) (diff.Mapping, error) {
	var (
		m   diff.Mapping
		err error
	)
	if raw := r.FormValue("mapping"); raw != "" {
		m, err = diff.DecodeMapping([]byte(raw))
		if err != nil {
			return diff.Mapping{}, err
		}
	} else {
		m = diff.NewMapping(formList(r, "columns"), strings.TrimSpace(r.FormValue("primary_key")))
	}

	if raw := strings.TrimSpace(r.FormValue("tolerance")); raw != "" {
		tol, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return diff.Mapping{}, fmt.Errorf("%w: tolerance %q", diff.ErrInvalidMapping, raw)
		}
		m.Tolerance = tol
	}
	return m, nil
}
