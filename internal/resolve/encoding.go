package resolve

// encoding.go turns raw upload bytes into a validated UTF-8 stream.
//
// Decoding is streamed so that a row limit stops work early:
//
//   - bomReader drops a leading UTF-8 byte order mark
//   - x/text decoders convert legacy code pages on the fly
//   - checkedReader fails the stream on the first decode error
//
// Legacy decoders never fail on their own; they emit U+FFFD for byte
// sequences they cannot map. checkedReader treats such output as a decode
// error so the fallback chain moves on to the next candidate.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// ErrDecode reports bytes that are not valid in the attempted encoding.
var ErrDecode = errors.New("decode error")

// DefaultEncodings is the fallback order tried when the caller does not
// name an encoding.
var DefaultEncodings = []string{
	"utf-8",
	"utf-8-sig",
	"gbk",
	"gb2312",
	"big5",
	"shift_jis",
	"windows-1252",
	"latin1",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var replacementChar = []byte(string(utf8.RuneError))

// charset is a named decoder. A nil enc means the stream is UTF-8.
type charset struct {
	name string
	enc  encoding.Encoding
	bom  bool
}

// charsets maps normalized names (lowercase, no separators) to decoders.
// GB2312 is decoded with GBK, which is a strict superset of it.
var charsets = map[string]charset{
	"utf8":        {name: "utf-8"},
	"utf8sig":     {name: "utf-8-sig", bom: true},
	"gbk":         {name: "gbk", enc: simplifiedchinese.GBK},
	"cp936":       {name: "gbk", enc: simplifiedchinese.GBK},
	"gb2312":      {name: "gb2312", enc: simplifiedchinese.GBK},
	"gb18030":     {name: "gb18030", enc: simplifiedchinese.GB18030},
	"hzgb2312":    {name: "hz-gb-2312", enc: simplifiedchinese.HZGB2312},
	"big5":        {name: "big5", enc: traditionalchinese.Big5},
	"cp950":       {name: "big5", enc: traditionalchinese.Big5},
	"shiftjis":    {name: "shift_jis", enc: japanese.ShiftJIS},
	"sjis":        {name: "shift_jis", enc: japanese.ShiftJIS},
	"cp932":       {name: "shift_jis", enc: japanese.ShiftJIS},
	"eucjp":       {name: "euc-jp", enc: japanese.EUCJP},
	"euckr":       {name: "euc-kr", enc: korean.EUCKR},
	"cp1252":      {name: "windows-1252", enc: charmap.Windows1252},
	"windows1252": {name: "windows-1252", enc: charmap.Windows1252},
	"latin1":      {name: "latin1", enc: charmap.ISO8859_1},
	"iso88591":    {name: "latin1", enc: charmap.ISO8859_1},
}

// lookupCharset resolves a user-supplied encoding name.
func lookupCharset(name string) (charset, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	cs, ok := charsets[key]
	return cs, ok
}

// decodeStream returns a reader of UTF-8 text decoded from raw. For the
// automatic chain, plain utf-8 refuses input that starts with a BOM so that
// utf-8-sig is reported instead, and utf-8-sig refuses input without one.
func decodeStream(raw []byte, cs charset, strictBOM bool) (io.Reader, error) {
	hasBOM := bytes.HasPrefix(raw, utf8BOM)
	if strictBOM && cs.enc == nil && hasBOM != cs.bom {
		return nil, ErrDecode
	}

	var r io.Reader = bytes.NewReader(raw)
	if cs.enc == nil {
		r = newBOMReader(r)
	} else {
		r = transform.NewReader(r, cs.enc.NewDecoder())
	}
	return &checkedReader{src: r, legacy: cs.enc != nil, buf: make([]byte, 32*1024)}, nil
}

// bomReader drops a leading UTF-8 byte order mark.
type bomReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: bufio.NewReader(r)}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, err := b.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// checkedReader passes decoded text through and fails with ErrDecode on the
// first invalid sequence. Multi-byte runes split across reads are held back
// until complete.
type checkedReader struct {
	src     io.Reader
	legacy  bool
	buf     []byte
	pending []byte
	ready   []byte
	err     error
}

func (c *checkedReader) Read(p []byte) (int, error) {
	for len(c.ready) == 0 {
		if c.err != nil {
			return 0, c.err
		}

		n, err := c.src.Read(c.buf)
		chunk := append(c.pending, c.buf[:n]...)
		c.pending = nil
		if err != nil {
			c.err = err
		}

		cut := len(chunk)
		if c.err == nil {
			cut -= incompleteTrailingBytes(chunk)
		}
		c.pending = append([]byte(nil), chunk[cut:]...)

		if !c.valid(chunk[:cut]) {
			c.err = ErrDecode
			return 0, ErrDecode
		}
		c.ready = chunk[:cut]
	}

	n := copy(p, c.ready)
	c.ready = c.ready[n:]
	return n, nil
}

func (c *checkedReader) valid(data []byte) bool {
	if c.legacy {
		return !bytes.Contains(data, replacementChar)
	}
	return utf8.Valid(data)
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
