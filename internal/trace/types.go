// Package trace records the lifecycle events of one interception session
// (resolve, patch, intercept, restore) so a caller like cmd/pltdemo can
// print a timeline instead of only the final state.
package trace

import (
	"sync"
	"time"
)

// Tag categorizes a trace event.
type Tag string

const (
	Resolved    Tag = "resolved"
	ResolveMiss Tag = "resolve-miss"
	Patched     Tag = "patched"
	Intercepted Tag = "intercepted"
	Restored    Tag = "restored"
	IFunc       Tag = "ifunc"
	VDSOSkip    Tag = "vdso-skip"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with a # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Primary returns the first tag, or the empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for a trace event.
type Annotations map[string]string

// Event is one recorded step of an interception session.
type Event struct {
	Tags        Tags
	Name        string // symbol name the event concerns
	Detail      string
	Annotations Annotations
	Timestamp   time.Time
}

// NewEvent creates an event tagged with category, for symbol name.
func NewEvent(category Tag, name, detail string) *Event {
	return &Event{
		Tags:        Tags{category},
		Name:        name,
		Detail:      detail,
		Annotations: make(Annotations),
		Timestamp:   time.Now(),
	}
}

// AddTag adds a secondary tag to the event.
func (e *Event) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// Annotate sets an annotation on the event.
func (e *Event) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations[k] = v
}

// PrimaryTag returns the event's primary tag with a # prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Recorder accumulates events across one interception session. The zero
// value is ready to use.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// Record appends a new event tagged category, for symbol name, with
// detail, and returns it so the caller can add further annotations.
func (r *Recorder) Record(category Tag, name, detail string) *Event {
	e := NewEvent(category, name, detail)
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return e
}

// Events returns the events recorded so far, in recording order.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.events))
	copy(out, r.events)
	return out
}
