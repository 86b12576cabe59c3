package resolve

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrInvalidSeparator reports a separator that is not a single usable character.
var ErrInvalidSeparator = errors.New("invalid separator")

// SeparatorAuto asks the resolver to sniff the separator from the data.
const SeparatorAuto = "auto"

// sniffCandidates are the separators considered by SeparatorAuto, in
// tie-break order.
var sniffCandidates = []rune{',', ';', '\t', '|'}

const sniffBytes = 64 * 1024

// parseSeparator validates a requested separator. The empty string means
// comma; "auto" returns 0 and sets auto.
func parseSeparator(s string) (sep rune, auto bool, err error) {
	switch strings.ToLower(s) {
	case "":
		return ',', false, nil
	case SeparatorAuto:
		return 0, true, nil
	case `\t`, "tab", "\t":
		return '\t', false, nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSeparator, s)
	}
	return r, false, nil
}

// readDelimited parses decoded text into a header and at most maxRows
// records (all records when maxRows <= 0).
func readDelimited(r io.Reader, sep rune, auto bool, maxRows int) (rune, []string, [][]string, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	if auto {
		sample, err := br.Peek(sniffBytes)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, nil, nil, err
		}
		sep = sniffSeparator(sample)
	}

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return sep, nil, nil, nil
	}
	if err != nil {
		return sep, nil, nil, err
	}

	var records [][]string
	for maxRows <= 0 || len(records) < maxRows {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sep, nil, nil, err
		}
		records = append(records, rec)
	}
	return sep, header, records, nil
}

// sniffSeparator picks the candidate that appears most consistently across
// the first lines of sample: the one with the highest minimum per-line
// count. Falls back to comma.
func sniffSeparator(sample []byte) rune {
	var lines [][]byte
	for _, line := range bytes.Split(sample, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 10 {
			break
		}
	}
	// The last line of a truncated sample may be partial.
	if len(sample) == sniffBytes && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}

	best, bestScore := ',', 0
	for _, cand := range sniffCandidates {
		score := -1
		for _, line := range lines {
			n := countOutsideQuotes(line, cand)
			if score < 0 || n < score {
				score = n
			}
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

func countOutsideQuotes(line []byte, sep rune) int {
	n := 0
	quoted := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == sep && !quoted:
			n++
		}
	}
	return n
}

// separatorName renders a separator for table metadata.
func separatorName(sep rune) string {
	if sep == '\t' {
		return `\t`
	}
	return string(sep)
}
