// Package yscan is a pull-based producer of internal/yamlh events for the
// strict YAML subset cyaml-go consumes: block mappings, block and flow
// sequences, plain/single/double-quoted scalars, optional "---"/"..."
// document framing. No anchors, aliases, tags, multi-line literal/folded
// scalars, flow mappings or merge keys — matching spec.md's Non-goals.
//
// Unlike a streaming libyaml-style scanner, Parser parses the whole input
// eagerly into an event slice at construction time and Next/Peek walk that
// slice. The engine never reads a byte stream incrementally (LoadData
// always receives a complete []byte), so there is no observable difference
// from the caller's point of view, and it keeps the indentation-sensitive
// recursive descent far simpler than a truly incremental state machine.
package yscan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tlsa/cyaml-go/internal/yamlh"
)

// Parser produces a stream of events for one YAML document.
type Parser struct {
	events []yamlh.Event
	pos    int
}

// New parses data and returns a Parser ready to be pulled from.
func New(data []byte) (*Parser, error) {
	lines, err := splitLines(data)
	if err != nil {
		return nil, err
	}
	lines = trimFraming(lines)

	b := &builder{}
	b.emit(yamlh.Event{Type: yamlh.StreamStartEvent})
	b.emit(yamlh.Event{Type: yamlh.DocumentStartEvent})
	if err := b.parseBlockValue(lines, 0, -1); err != nil {
		return nil, err
	}
	b.emit(yamlh.Event{Type: yamlh.DocumentEndEvent})
	b.emit(yamlh.Event{Type: yamlh.StreamEndEvent})
	return &Parser{events: b.events}, nil
}

// Next consumes and returns the next event.
func (p *Parser) Next() (yamlh.Event, error) {
	e, err := p.Peek()
	if err != nil {
		return e, err
	}
	p.pos++
	return e, nil
}

// Peek returns the next event without consuming it.
func (p *Parser) Peek() (yamlh.Event, error) {
	if p.pos >= len(p.events) {
		return yamlh.Event{}, fmt.Errorf("yscan: read past stream end")
	}
	return p.events[p.pos], nil
}

type line struct {
	indent int
	text   string // content after indent, comments stripped, right-trimmed
	lineNo int
}

type builder struct {
	events []yamlh.Event
}

func (b *builder) emit(e yamlh.Event) { b.events = append(b.events, e) }

// splitLines turns raw input into logical lines: blank lines and
// comment-only lines are dropped, trailing comments are stripped (outside
// quotes), and indentation is measured in leading spaces (tabs rejected,
// matching block-style YAML).
func splitLines(data []byte) ([]line, error) {
	var out []line
	raw := strings.Split(string(data), "\n")
	for i, rawLine := range raw {
		rawLine = strings.TrimRight(rawLine, "\r")
		if strings.ContainsRune(rawLine, '\t') {
			return nil, fmt.Errorf("yscan: line %d: tabs are not permitted for indentation", i+1)
		}
		stripped, indent := stripComment(rawLine)
		trimmed := strings.TrimSpace(stripped)
		if trimmed == "" {
			continue
		}
		out = append(out, line{indent: indent, text: trimmed, lineNo: i + 1})
	}
	return out, nil
}

// stripComment removes a trailing "# ..." comment that starts outside any
// quoted scalar, and returns the indent (count of leading spaces) of the
// original line.
func stripComment(s string) (string, int) {
	indent := 0
	for indent < len(s) && s[indent] == ' ' {
		indent++
	}
	body := s[indent:]
	inSingle, inDouble := false, false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inDouble {
				inDouble = true
			} else if i == 0 || body[i-1] != '\\' {
				inDouble = false
			}
		case '#':
			if !inSingle && !inDouble && (i == 0 || body[i-1] == ' ') {
				return s[:indent+i], indent
			}
		}
	}
	return s, indent
}

// trimFraming drops a leading "---" and trailing "..." document marker.
func trimFraming(lines []line) []line {
	if len(lines) > 0 && lines[0].text == "---" {
		lines = lines[1:]
	}
	if len(lines) > 0 && lines[len(lines)-1].text == "..." {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// parseBlockValue parses one value (mapping, sequence, or scalar) starting
// at lines[start], whose indent must be > parentIndent, and returns an
// error if any line is left unconsumed after it. An empty `lines` (no
// content at all) produces a single null scalar event, matching YAML's
// empty-document convention (spec.md scenario S5).
func (b *builder) parseBlockValue(lines []line, start, parentIndent int) error {
	idx, err := b.blockValue(lines, start, parentIndent)
	if err != nil {
		return err
	}
	if idx != len(lines) {
		return fmt.Errorf("yscan: line %d: unexpected indentation", lines[idx].lineNo)
	}
	return nil
}

func (b *builder) blockValue(lines []line, start, parentIndent int) (int, error) {
	if start >= len(lines) {
		b.emit(scalarEvent("", yamlh.PlainScalarStyle))
		return start, nil
	}
	first := lines[start]
	if first.indent <= parentIndent {
		b.emit(scalarEvent("", yamlh.PlainScalarStyle))
		return start, nil
	}
	if isSequenceEntry(first.text) {
		return b.blockSequence(lines, start, first.indent)
	}
	if key, rest, ok := splitMappingKey(first.text); ok {
		_ = key
		_ = rest
		return b.blockMapping(lines, start, first.indent)
	}
	return b.scalarLine(lines, start)
}

func isSequenceEntry(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

func (b *builder) blockSequence(lines []line, start, indent int) (int, error) {
	b.emit(yamlh.Event{Type: yamlh.SequenceStartEvent, SeqStyle: yamlh.BlockSequenceStyle})
	i := start
	for i < len(lines) && lines[i].indent == indent && isSequenceEntry(lines[i].text) {
		rest := strings.TrimPrefix(lines[i].text, "-")
		rest = strings.TrimPrefix(rest, " ")
		rest = strings.TrimSpace(rest)
		if rest == "" {
			next, err := b.blockValue(lines, i+1, indent)
			if err != nil {
				return 0, err
			}
			i = next
			continue
		}
		inline := line{indent: indent + 2, text: rest, lineNo: lines[i].lineNo}
		tail := append([]line{inline}, lines[i+1:]...)
		next, err := b.blockValue(tail, 0, indent+1)
		if err != nil {
			return 0, err
		}
		i = i + 1 + (next - 1)
	}
	b.emit(yamlh.Event{Type: yamlh.SequenceEndEvent})
	return i, nil
}

func (b *builder) blockMapping(lines []line, start, indent int) (int, error) {
	b.emit(yamlh.Event{Type: yamlh.MappingStartEvent})
	i := start
	for i < len(lines) && lines[i].indent == indent {
		key, rest, ok := splitMappingKey(lines[i].text)
		if !ok {
			break
		}
		b.emit(scalarKeyEvent(key))
		if strings.TrimSpace(rest) == "" {
			next, err := b.blockValue(lines, i+1, indent)
			if err != nil {
				return 0, err
			}
			i = next
			continue
		}
		inline := line{indent: indent + 2, text: strings.TrimSpace(rest), lineNo: lines[i].lineNo}
		tail := append([]line{inline}, lines[i+1:]...)
		next, err := b.blockValue(tail, 0, indent+1)
		if err != nil {
			return 0, err
		}
		i = i + 1 + (next - 1)
	}
	b.emit(yamlh.Event{Type: yamlh.MappingEndEvent})
	return i, nil
}

// scalarLine parses a single logical line as a scalar: a flow sequence, a
// quoted string, or a plain scalar.
func (b *builder) scalarLine(lines []line, start int) (int, error) {
	text := lines[start].text
	if strings.HasPrefix(text, "[") {
		if err := b.flowSequence(text, lines[start].lineNo); err != nil {
			return 0, err
		}
		return start + 1, nil
	}
	val, style, err := parseScalarText(text)
	if err != nil {
		return 0, fmt.Errorf("yscan: line %d: %w", lines[start].lineNo, err)
	}
	b.emit(scalarEvent(val, style))
	return start + 1, nil
}

// flowSequence parses a bracketed "[a, b, c]" flow sequence, including
// nested flow sequences, entirely from a single logical line.
func (b *builder) flowSequence(text string, lineNo int) error {
	items, rest, err := splitFlowSequence(text)
	if err != nil {
		return fmt.Errorf("yscan: line %d: %w", lineNo, err)
	}
	if strings.TrimSpace(rest) != "" {
		return fmt.Errorf("yscan: line %d: trailing content after flow sequence", lineNo)
	}
	b.emit(yamlh.Event{Type: yamlh.SequenceStartEvent, SeqStyle: yamlh.FlowSequenceStyle})
	for _, item := range items {
		item = strings.TrimSpace(item)
		if strings.HasPrefix(item, "[") {
			if err := b.flowSequence(item, lineNo); err != nil {
				return err
			}
			continue
		}
		val, style, err := parseScalarText(item)
		if err != nil {
			return fmt.Errorf("yscan: line %d: %w", lineNo, err)
		}
		b.emit(scalarEvent(val, style))
	}
	b.emit(yamlh.Event{Type: yamlh.SequenceEndEvent})
	return nil
}

// splitFlowSequence consumes a leading "[...]" from text, honoring nested
// brackets and quotes, and returns the top-level comma-separated items
// (empty slice for "[]"), plus whatever text followed the closing bracket.
func splitFlowSequence(text string) ([]string, string, error) {
	if len(text) == 0 || text[0] != '[' {
		return nil, "", fmt.Errorf("expected '['")
	}
	depth := 0
	inSingle, inDouble := false, false
	var cur strings.Builder
	var items []string
	i := 0
	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
			cur.WriteByte(c)
		case inDouble:
			cur.WriteByte(c)
			if c == '"' && (i == 0 || text[i-1] != '\\') {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
			cur.WriteByte(c)
		case c == '"':
			inDouble = true
			cur.WriteByte(c)
		case c == '[':
			depth++
			if depth > 1 {
				cur.WriteByte(c)
			}
		case c == ']':
			depth--
			if depth == 0 {
				last := strings.TrimSpace(cur.String())
				if last != "" {
					items = append(items, last)
				}
				return items, text[i+1:], nil
			}
			cur.WriteByte(c)
		case c == ',' && depth == 1:
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return nil, "", fmt.Errorf("unterminated flow sequence")
}

// splitMappingKey splits "key: rest" on the first top-level ": " or a
// trailing ":", honoring quoted keys. ok is false if text is not a mapping
// entry at all.
func splitMappingKey(text string) (key, rest string, ok bool) {
	if len(text) == 0 {
		return "", "", false
	}
	i := 0
	if text[0] == '\'' || text[0] == '"' {
		q := text[0]
		i = 1
		for i < len(text) && text[i] != q {
			if q == '"' && text[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(text) {
			return "", "", false
		}
		i++
	} else {
		for i < len(text) && text[i] != ':' {
			i++
		}
	}
	if i >= len(text) || text[i] != ':' {
		return "", "", false
	}
	if i+1 < len(text) && text[i+1] != ' ' {
		return "", "", false
	}
	return text[:i], text[i+1:], true
}

// parseScalarText decodes one scalar token: single-quoted, double-quoted,
// or plain. The null forms "~" and "" both become an empty plain scalar;
// any other plain text, "null" included, is passed through unchanged for
// the scalar codec to resolve against the descriptor later.
func parseScalarText(text string) (string, yamlh.ScalarStyle, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "~" {
		return "", yamlh.PlainScalarStyle, nil
	}
	switch text[0] {
	case '\'':
		if len(text) < 2 || text[len(text)-1] != '\'' {
			return "", 0, fmt.Errorf("unterminated single-quoted scalar")
		}
		inner := text[1 : len(text)-1]
		return strings.ReplaceAll(inner, "''", "'"), yamlh.SingleQuotedScalarStyle, nil
	case '"':
		if len(text) < 2 || text[len(text)-1] != '"' {
			return "", 0, fmt.Errorf("unterminated double-quoted scalar")
		}
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return "", 0, fmt.Errorf("invalid double-quoted scalar: %w", err)
		}
		return unquoted, yamlh.DoubleQuotedScalarStyle, nil
	default:
		return text, yamlh.PlainScalarStyle, nil
	}
}

func scalarEvent(value string, style yamlh.ScalarStyle) yamlh.Event {
	return yamlh.Event{Type: yamlh.ScalarEvent, Value: value, Style: style}
}

func scalarKeyEvent(key string) yamlh.Event {
	val, style, err := parseScalarText(key)
	if err != nil {
		val, style = key, yamlh.PlainScalarStyle
	}
	return scalarEvent(val, style)
}
