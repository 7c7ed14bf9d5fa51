// Package kb keeps the parsed reports served by the report server.
package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/radiomobile/model"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportBadInput = errors.New("invalid report")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventReportAdded EventType = iota
	EventReportUpdated
	EventReportRemoved
)

func (t EventType) String() string {
	switch t {
	case EventReportAdded:
		return "added"
	case EventReportUpdated:
		return "updated"
	case EventReportRemoved:
		return "removed"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is emitted to subscribers when a report is stored or removed.
type Event struct {
	Type  EventType
	Entry Entry
}

// Entry is a stored report. Name is the catalog key (usually the source
// path); ID is assigned on first insert and kept across updates.
type Entry struct {
	ID       string
	Name     string
	Digest   string // content digest of the source, as supplied by the caller
	LoadedAt time.Time
	Report   *model.Report
}

// KnowledgeBase is an in-memory, thread-safe report catalog. Reports are
// immutable once parsed, so entries are shared with callers without copying.
type KnowledgeBase struct {
	mu sync.RWMutex

	reports map[string]Entry
	byID    map[string]string // ID -> name

	subs   map[int]func(Event)
	nextID int

	now func() time.Time
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		reports: make(map[string]Entry),
		byID:    make(map[string]string),
		subs:    make(map[int]func(Event)),
		now:     time.Now,
	}
}

// PutReport stores r under name, replacing any previous report with that
// name. It returns the stored entry.
func (kb *KnowledgeBase) PutReport(name, digest string, r *model.Report) (Entry, error) {
	if name == "" || r == nil {
		return Entry{}, fmt.Errorf("%w: empty name or nil report", ErrReportBadInput)
	}

	kb.mu.Lock()
	prev, exists := kb.reports[name]
	entry := Entry{
		ID:       prev.ID,
		Name:     name,
		Digest:   digest,
		LoadedAt: kb.now(),
		Report:   r,
	}
	typ := EventReportUpdated
	if !exists {
		entry.ID = uuid.NewString()
		kb.byID[entry.ID] = name
		typ = EventReportAdded
	}
	kb.reports[name] = entry
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: typ, Entry: entry})
	return entry, nil
}

// GetReport returns the entry stored under name.
func (kb *KnowledgeBase) GetReport(name string) (Entry, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	e, ok := kb.reports[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrReportNotFound, name)
	}
	return e, nil
}

// GetReportByID returns the entry with the given catalog ID.
func (kb *KnowledgeBase) GetReportByID(id string) (Entry, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	name, ok := kb.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: id %q", ErrReportNotFound, id)
	}
	return kb.reports[name], nil
}

// ListReports returns a snapshot of all entries sorted by name.
func (kb *KnowledgeBase) ListReports() []Entry {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]Entry, 0, len(kb.reports))
	for _, e := range kb.reports {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// RemoveReport deletes the entry stored under name.
func (kb *KnowledgeBase) RemoveReport(name string) error {
	kb.mu.Lock()
	e, ok := kb.reports[name]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrReportNotFound, name)
	}
	delete(kb.reports, name)
	delete(kb.byID, e.ID)
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventReportRemoved, Entry: e})
	return nil
}

// Len returns the number of stored reports.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.reports)
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function. Callbacks run on the writer's goroutine after the lock is
// released.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// subscribersLocked snapshots the callbacks in registration order.
func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, kb.subs[id])
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
