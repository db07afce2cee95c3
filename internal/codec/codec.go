// Package codec reads and writes the token collection file. The file has
// lived through three shapes: a JSON array (current), tab-delimited text,
// and bare newline-delimited values. Decode accepts all three; Encode
// produces JSON or tab-delimited text depending on the configured file
// extension.
package codec

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/ycxd3695-spec/token-management-system/internal/models"
)

// Format selects the on-file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// FormatForPath picks the encoding from the configured filename: a .json
// extension means JSON, anything else means tab-delimited text.
func FormatForPath(p string) Format {
	if strings.EqualFold(path.Ext(p), ".json") {
		return FormatJSON
	}
	return FormatText
}

// Decode turns a raw file blob into a token list. It is total: content
// that is not a JSON array is reinterpreted line by line rather than
// rejected, so legacy files (and, ambiguously, corrupt JSON) always load.
// The second return value reports which shape was actually found so the
// caller can log the fallback.
func Decode(raw []byte) ([]models.Token, Format) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return []models.Token{}, FormatJSON
	}

	var tokens []models.Token
	if err := json.Unmarshal([]byte(text), &tokens); err == nil {
		if tokens == nil {
			tokens = []models.Token{}
		}
		return tokens, FormatJSON
	}

	return decodeLines(text), FormatText
}

// decodeLines handles the two legacy shapes. A line with a tab carries up
// to four fields (name, value, tag, createdAt); a line without one is a
// bare value. Missing trailing fields take defaults, and the record id is
// derived from the value so an unmodified line keeps a stable identity
// across reads.
func decodeLines(text string) []models.Token {
	now := models.Timestamp(time.Now())

	var tokens []models.Token
	index := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		index++

		t := models.Token{CreatedAt: now}
		if strings.Contains(line, "\t") {
			fields := strings.SplitN(line, "\t", 4)
			t.Name = strings.TrimSpace(fields[0])
			if len(fields) > 1 {
				t.Value = strings.TrimSpace(fields[1])
			}
			if len(fields) > 2 {
				t.Tag = strings.TrimSpace(fields[2])
			}
			if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
				t.CreatedAt = strings.TrimSpace(fields[3])
			}
		} else {
			t.Value = strings.TrimSpace(line)
		}
		if t.Name == "" {
			t.Name = "Token " + strconv.Itoa(index)
		}
		t.ID = legacyID(t.Value)
		tokens = append(tokens, t)
	}
	if tokens == nil {
		tokens = []models.Token{}
	}
	return tokens
}

// Encode renders the collection in the requested format. Text encoding
// does not escape embedded tabs or newlines; a value containing either
// will not survive the round trip. That limitation is as old as the
// text format itself.
func Encode(tokens []models.Token, format Format) ([]byte, error) {
	if format == FormatJSON {
		if tokens == nil {
			tokens = []models.Token{}
		}
		return json.MarshalIndent(tokens, "", "  ")
	}

	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Name)
		b.WriteByte('\t')
		b.WriteString(t.Value)
		b.WriteByte('\t')
		b.WriteString(t.Tag)
		b.WriteByte('\t')
		b.WriteString(t.CreatedAt)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
