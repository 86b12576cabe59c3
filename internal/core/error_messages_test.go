package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/combine"
	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/export"
	"github.com/Fanfan0315/Horisation/internal/resolve"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"body too large", &http.MaxBytesError{Limit: 10}, "FILE001"},
		{"unreadable file", &resolve.UnreadableFileError{Filename: "a.csv", Attempted: []string{"utf-8"}, Err: resolve.ErrDecode}, "FILE002"},
		{"unknown encoding", &resolve.UnreadableFileError{Filename: "a.csv", Attempted: []string{"klingon"}, Err: fmt.Errorf("%w: klingon", resolve.ErrUnknownEncoding)}, "FILE003"},
		{"no file", fmt.Errorf("file1: %w", ErrNoFile), "FILE004"},
		{"empty file", fmt.Errorf("resolve: %w", resolve.ErrEmptyFile), "FILE005"},
		{"unsupported format", &resolve.UnsupportedFormatError{Filename: "a.ods", Ext: ".ods"}, "FILE006"},
		{"invalid separator", fmt.Errorf("%w: %q", resolve.ErrInvalidSeparator, "ab"), "FILE007"},
		{"missing sheet", fmt.Errorf("%w: %q", resolve.ErrSheetNotFound, "Q3"), "FILE008"},
		{"artifact not found", ErrArtifactNotFound, "FILE009"},
		{"empty mapping", diff.ErrEmptyMapping, "DIFF001"},
		{"alignment", &diff.AlignmentError{Column: "id", Side: 2}, "DIFF002"},
		{"not comparable", &diff.ColumnError{Column: "s", Reason: "not numeric in file 1"}, "DIFF003"},
		{"bad mapping", fmt.Errorf("%w: eof", diff.ErrInvalidMapping), "DIFF004"},
		{"bad options", fmt.Errorf("%w: bogus", clean.ErrInvalidOptions), "OPT001"},
		{"bad format", fmt.Errorf("%w: pdf", export.ErrUnknownFormat), "OPT002"},
		{"bad combine", &combine.MissingColumnError{Column: "id", Side: 1}, "OPT003"},
		{"busy", ErrTooManyOperations, "UPL001"},
		{"cancelled", fmt.Errorf("read: %w", context.Canceled), "UPL002"},
		{"deadline", context.DeadlineExceeded, "UPL003"},
		{"pattern fallback", errors.New("http: request body too large"), "FILE001"},
		{"rate limit text", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q (message %q)", got.Code, tt.wantCode, got.Message)
			}
		})
	}
}

func TestMapError_AlignmentMessageNamesColumn(t *testing.T) {
	got := MapError(fmt.Errorf("diff: %w", &diff.AlignmentError{Column: "order_id", Side: 1}))
	want := `Primary key "order_id" is missing from file 1`
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	got := FormatUserError(diff.ErrEmptyMapping)
	want := "No columns were selected for comparison (Code: DIFF001). Select at least one shared numeric column"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{diff.ErrEmptyMapping, true},
		{resolve.ErrEmptyFile, true},
		{ErrTooManyOperations, false},
		{context.Canceled, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsClientError(tt.err); got != tt.want {
			t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(errors.New("boom")) {
		t.Error("unknown error should not be user facing")
	}
	if !IsUserFacing(clean.ErrInvalidOptions) {
		t.Error("invalid options should be user facing")
	}
}
