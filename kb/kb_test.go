package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/radiomobile/model"
)

func TestPutAndGetReport(t *testing.T) {
	store := NewKnowledgeBase()
	r := model.NewReport()

	e, err := store.PutReport("a.txt", "d1", r)
	if err != nil {
		t.Fatalf("PutReport error: %v", err)
	}
	if e.ID == "" || e.Report != r || e.Digest != "d1" {
		t.Fatalf("PutReport returned %+v", e)
	}

	got, err := store.GetReport("a.txt")
	if err != nil || got.ID != e.ID {
		t.Fatalf("GetReport = %+v, %v", got, err)
	}
	byID, err := store.GetReportByID(e.ID)
	if err != nil || byID.Name != "a.txt" {
		t.Fatalf("GetReportByID = %+v, %v", byID, err)
	}
}

func TestPutReportKeepsIDOnUpdate(t *testing.T) {
	store := NewKnowledgeBase()
	first, _ := store.PutReport("a.txt", "d1", model.NewReport())
	second, err := store.PutReport("a.txt", "d2", model.NewReport())
	if err != nil {
		t.Fatalf("second PutReport error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ID changed on update: %q -> %q", first.ID, second.ID)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestPutReportBadInput(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.PutReport("", "", model.NewReport()); !errors.Is(err, ErrReportBadInput) {
		t.Fatalf("empty name error = %v", err)
	}
	if _, err := store.PutReport("x", "", nil); !errors.Is(err, ErrReportBadInput) {
		t.Fatalf("nil report error = %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.GetReport("nope"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("GetReport error = %v, want ErrReportNotFound", err)
	}
	if _, err := store.GetReportByID("nope"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("GetReportByID error = %v, want ErrReportNotFound", err)
	}
	if err := store.RemoveReport("nope"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("RemoveReport error = %v, want ErrReportNotFound", err)
	}
}

func TestListReportsSorted(t *testing.T) {
	store := NewKnowledgeBase()
	for _, n := range []string{"c", "a", "b"} {
		if _, err := store.PutReport(n, "", model.NewReport()); err != nil {
			t.Fatalf("PutReport error: %v", err)
		}
	}
	var names []string
	for _, e := range store.ListReports() {
		names = append(names, e.Name)
	}
	if fmt.Sprint(names) != "[a b c]" {
		t.Fatalf("ListReports names = %v, want [a b c]", names)
	}
}

func TestSubscribeEvents(t *testing.T) {
	store := NewKnowledgeBase()

	var mu sync.Mutex
	var got []EventType
	unsubscribe := store.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Type)
	})

	store.PutReport("a", "", model.NewReport())
	store.PutReport("a", "", model.NewReport())
	if err := store.RemoveReport("a"); err != nil {
		t.Fatalf("RemoveReport error: %v", err)
	}
	unsubscribe()
	store.PutReport("b", "", model.NewReport())

	want := []EventType{EventReportAdded, EventReportUpdated, EventReportRemoved}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestUnsubscribeOneOfMany(t *testing.T) {
	store := NewKnowledgeBase()
	var a, b int
	unsubA := store.Subscribe(func(Event) { a++ })
	store.Subscribe(func(Event) { b++ })
	unsubA()
	unsubA()

	store.PutReport("x", "", model.NewReport())
	if a != 0 || b != 1 {
		t.Fatalf("a=%d b=%d, want 0 and 1", a, b)
	}
}

func TestSubscriberMayReadKB(t *testing.T) {
	store := NewKnowledgeBase()
	store.Subscribe(func(ev Event) {
		// Must not deadlock: callbacks run outside the lock.
		_ = store.ListReports()
	})
	if _, err := store.PutReport("x", "", model.NewReport()); err != nil {
		t.Fatalf("PutReport error: %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("r-%d", i%3)
			store.PutReport(name, "", model.NewReport())
			store.ListReports()
			store.GetReport(name)
		}(i)
	}
	wg.Wait()
	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
	}
}
