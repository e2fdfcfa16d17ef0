// Package yamlh declares the pull event vocabulary shared by the scanner,
// parser and emitter: a small, closed set of event kinds modeled on
// libyaml's event stream (STREAM-START, DOCUMENT-START, SCALAR,
// SEQUENCE-START/END, MAPPING-START/END, ...), trimmed to the subset this
// module's strict block/flow YAML subset actually produces and consumes.
package yamlh

import "fmt"

// ScalarStyle records how a scalar was (or should be) quoted.
type ScalarStyle int8

const (
	AnyScalarStyle ScalarStyle = iota
	PlainScalarStyle
	SingleQuotedScalarStyle
	DoubleQuotedScalarStyle
)

// SequenceStyle records block vs flow rendering for a sequence.
type SequenceStyle int8

const (
	AnySequenceStyle SequenceStyle = iota
	BlockSequenceStyle
	FlowSequenceStyle
)

// EventType is the tag of an Event.
type EventType int8

const (
	NoEvent EventType = iota
	StreamStartEvent
	StreamEndEvent
	DocumentStartEvent
	DocumentEndEvent
	ScalarEvent
	SequenceStartEvent
	SequenceEndEvent
	MappingStartEvent
	MappingEndEvent
)

var eventNames = [...]string{
	NoEvent:            "none",
	StreamStartEvent:   "stream start",
	StreamEndEvent:     "stream end",
	DocumentStartEvent: "document start",
	DocumentEndEvent:   "document end",
	ScalarEvent:        "scalar",
	SequenceStartEvent: "sequence start",
	SequenceEndEvent:   "sequence end",
	MappingStartEvent:  "mapping start",
	MappingEndEvent:    "mapping end",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return fmt.Sprintf("unknown event %d", t)
	}
	return eventNames[t]
}

// Position is a location in the source document, used for diagnostics only
// (never for control flow, per spec.md §4.5).
type Position struct {
	Line, Column int
}

// Event is one item of the pull stream produced by internal/yscan and
// consumed by the load engine, or produced by the save engine and consumed
// by internal/yemit.
type Event struct {
	Type  EventType
	Value string        // scalar text (ScalarEvent only)
	Style ScalarStyle    // ScalarEvent's quoting
	SeqStyle SequenceStyle // block vs flow, for SequenceStartEvent
	Pos   Position
}

func (e Event) String() string {
	if e.Type == ScalarEvent {
		return fmt.Sprintf("%s(%q)", e.Type, e.Value)
	}
	return e.Type.String()
}
