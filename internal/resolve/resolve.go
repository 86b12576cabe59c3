// Package resolve turns raw upload bytes plus a filename into a table.
//
// Routing is by file extension: OOXML and BIFF (.xls) workbooks go to the
// spreadsheet decoders, other binary workbooks are rejected, and everything
// else is read as delimited text. Delimited text is decoded with the encoding the
// caller names, or else with the first entry of DefaultEncodings that
// decodes and parses cleanly.
package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// Formats reported in table.Source.
const (
	FormatDelimited   = "delimited"
	FormatSpreadsheet = "spreadsheet"
)

var (
	// ErrEmptyFile reports an upload with no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnknownEncoding reports an encoding name with no decoder.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// spreadsheetExts maps workbook extensions to their decoder.
var spreadsheetExts = map[string]workbookReader{
	".xlsx": {"xlsx", readSpreadsheet},
	".xlsm": {"xlsx", readSpreadsheet},
	".xltx": {"xlsx", readSpreadsheet},
	".xltm": {"xlsx", readSpreadsheet},
	".xls":  {"xls", readLegacyWorkbook},
}

type workbookReader struct {
	name string
	read func(raw []byte, sheet string, headerRows, maxRows int) (string, []string, [][]string, error)
}

// unsupportedExts are workbook formats without a decoder.
var unsupportedExts = map[string]bool{
	".xlsb":    true,
	".ods":     true,
	".numbers": true,
}

// Options are the caller's decoding hints. Zero values mean defaults.
type Options struct {
	// Separator for delimited text: a single character, `\t`, or "auto".
	Separator string
	// Encoding forces a single decoder instead of the fallback chain.
	Encoding string
	// MaxRows stops reading after this many data rows.
	MaxRows int
	// Sheet selects a workbook sheet; the first sheet by default.
	Sheet string
	// HeaderRows is the number of workbook header rows to flatten.
	HeaderRows int
}

// UnreadableFileError reports a file no attempted decoding could read.
type UnreadableFileError struct {
	Filename  string
	Attempted []string
	Err       error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %q (tried %s): %v",
		e.Filename, strings.Join(e.Attempted, ", "), e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a file extension with no decoder.
type UnsupportedFormatError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for file %q", e.Ext, e.Filename)
}

// Resolve decodes raw into a table.
func Resolve(raw []byte, filename string, opts Options) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if unsupportedExts[ext] {
		return nil, &UnsupportedFormatError{Filename: filename, Ext: ext}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyFile
	}

	if wr, ok := spreadsheetExts[ext]; ok {
		return resolveSpreadsheet(raw, filename, wr, opts)
	}
	return resolveDelimited(raw, filename, opts)
}

func resolveSpreadsheet(raw []byte, filename string, wr workbookReader, opts Options) (*table.Table, error) {
	sheet, header, records, err := wr.read(raw, opts.Sheet, opts.HeaderRows, opts.MaxRows)
	if errors.Is(err, ErrSheetNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &UnreadableFileError{Filename: filename, Attempted: []string{wr.name}, Err: err}
	}

	t := table.New(header, records)
	t.Source = table.Source{Filename: filename, Format: FormatSpreadsheet, Sheet: sheet}
	return t, nil
}

func resolveDelimited(raw []byte, filename string, opts Options) (*table.Table, error) {
	sep, auto, err := parseSeparator(opts.Separator)
	if err != nil {
		return nil, err
	}

	candidates := DefaultEncodings
	strictBOM := true
	if opts.Encoding != "" {
		candidates = []string{opts.Encoding}
		strictBOM = false
	}

	var attempted []string
	var lastErr error
	for _, name := range candidates {
		attempted = append(attempted, name)

		cs, ok := lookupCharset(name)
		if !ok {
			lastErr = fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
			continue
		}

		stream, err := decodeStream(raw, cs, strictBOM)
		if err != nil {
			lastErr = err
			continue
		}

		used, header, records, err := readDelimited(stream, sep, auto, opts.MaxRows)
		if err != nil {
			lastErr = err
			continue
		}

		t := table.New(header, records)
		t.Source = table.Source{
			Filename:  filename,
			Format:    FormatDelimited,
			Encoding:  cs.name,
			Separator: separatorName(used),
		}
		return t, nil
	}

	return nil, &UnreadableFileError{Filename: filename, Attempted: attempted, Err: lastErr}
}
