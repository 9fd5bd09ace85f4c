package writer

import (
	"encoding/base64"

	"github.com/segmentio/encoding/json"

	"github.com/bundlecraft/bundlecraft/internal/vlq"
)

// sourceMap is the JSON document described in spec §6: a standard version-3
// map with one names array (always empty; this bundler never renames
// identifiers) and a VLQ-encoded mappings string.
type sourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// mappingsBuilder accumulates one four-field VLQ segment per output line.
// All fields are deltas from the previous segment's value, except generated
// column, which resets to absolute (always 0 here, since every segment
// starts a fresh output line) at the start of each line.
type mappingsBuilder struct {
	buf []byte

	firstLine    bool
	prevSource   int
	prevLine     int
	prevColumn   int
	lineHasEntry bool
}

func newMappingsBuilder() *mappingsBuilder {
	return &mappingsBuilder{firstLine: true}
}

// AddLine starts a new output line's segment group.
func (m *mappingsBuilder) AddLine() {
	if !m.firstLine {
		m.buf = append(m.buf, ';')
	}
	m.firstLine = false
	m.lineHasEntry = false
}

// AddSegment appends the single four-field segment this writer emits per
// output line: generated column 0 (absolute, since it's the line's only
// segment), then deltas for source index, source line, and source column.
// The fifth (name) field is omitted, since no identifier renaming happens in
// this bundler.
func (m *mappingsBuilder) AddSegment(sourceIndex, sourceLine, sourceColumn int) {
	if m.lineHasEntry {
		m.buf = append(m.buf, ',')
	}
	m.lineHasEntry = true

	m.buf = vlq.Encode(m.buf, 0) // generated column, absolute within this line
	m.buf = vlq.Encode(m.buf, sourceIndex-m.prevSource)
	m.buf = vlq.Encode(m.buf, sourceLine-m.prevLine)
	m.buf = vlq.Encode(m.buf, sourceColumn-m.prevColumn)

	m.prevSource = sourceIndex
	m.prevLine = sourceLine
	m.prevColumn = sourceColumn
}

func (m *mappingsBuilder) String() string {
	return string(m.buf)
}

// encodeSourceMap renders the finished map as a JSON document. The comment
// that points the bundle at it comes from inlineSourceMapComment (base64
// data: URL) or fileSourceMapComment (sibling file name).
func encodeSourceMap(file string, sources []string, sourcesContent []string, mappings string) ([]byte, error) {
	m := sourceMap{
		Version:        3,
		File:           file,
		Sources:        sources,
		SourcesContent: sourcesContent,
		Names:          []string{},
		Mappings:       mappings,
	}
	return json.Marshal(m)
}

func inlineSourceMapComment(mapJSON []byte) string {
	encoded := base64.StdEncoding.EncodeToString(mapJSON)
	return "//# sourceMappingURL=data:application/json;base64," + encoded + "\n"
}

func fileSourceMapComment(mapFileName string) string {
	return "//# sourceMappingURL=" + mapFileName + "\n"
}
