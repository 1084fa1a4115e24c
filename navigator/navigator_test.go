package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeLoader serves canned lists keyed by level+parent and can be told to
// block or fail on demand
type fakeLoader struct {
	mu    sync.Mutex
	lists map[string][]Entry
	fail  map[string]error
	block map[string]chan struct{}
	calls []string
}

func key(level Level, parentID uint) string {
	return fmt.Sprintf("%s:%d", level, parentID)
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		lists: make(map[string][]Entry),
		fail:  make(map[string]error),
		block: make(map[string]chan struct{}),
	}
}

func (f *fakeLoader) set(level Level, parentID uint, entries []Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key(level, parentID)] = entries
}

func (f *fakeLoader) failWith(level Level, parentID uint, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key(level, parentID)] = err
}

func (f *fakeLoader) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeLoader) blockOn(level Level, parentID uint) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[key(level, parentID)] = ch
	return ch
}

func (f *fakeLoader) Load(ctx context.Context, universityID uint, level Level, parentID uint) ([]Entry, error) {
	k := key(level, parentID)

	f.mu.Lock()
	f.calls = append(f.calls, k)
	gate := f.block[k]
	delete(f.block, k)
	err := f.fail[k]
	list := f.lists[k]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func seedThreeLevels(loader *fakeLoader) {
	loader.set(LevelBranch, 0, []Entry{{ID: 1, Label: "CSE"}, {ID: 2, Label: "ME"}})
	loader.set(LevelSemester, 1, []Entry{{ID: 11, Label: "Semester 1"}, {ID: 12, Label: "Semester 2"}})
	loader.set(LevelSemester, 2, []Entry{{ID: 21, Label: "Semester 1"}})
	loader.set(LevelSubject, 11, []Entry{{ID: 111, Label: "Algorithms"}})
	loader.set(LevelSubject, 12, []Entry{{ID: 121, Label: "Databases"}})
	loader.set(LevelSubject, 21, []Entry{{ID: 211, Label: "Thermodynamics"}})
}

func TestRefreshSelectsFirstEntryDownTheTree(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	state := session.State()
	if state.Branch.Phase != PhaseLoaded {
		t.Fatalf("branch phase = %s, want loaded", state.Branch.Phase)
	}
	if state.Branch.SelectedID != 1 {
		t.Errorf("branch selection = %d, want 1", state.Branch.SelectedID)
	}
	if state.Semester.SelectedID != 11 {
		t.Errorf("semester selection = %d, want 11", state.Semester.SelectedID)
	}
	if state.Subject.SelectedID != 111 {
		t.Errorf("subject selection = %d, want 111", state.Subject.SelectedID)
	}
	if len(state.Subject.Entries) != 1 || state.Subject.Entries[0].Label != "Algorithms" {
		t.Errorf("unexpected subject entries: %+v", state.Subject.Entries)
	}
}

func TestRefreshWithEmptyCatalog(t *testing.T) {
	loader := newFakeLoader()
	loader.set(LevelBranch, 0, nil)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	state := session.State()
	if state.Branch.Phase != PhaseLoaded {
		t.Fatalf("branch phase = %s, want loaded", state.Branch.Phase)
	}
	if state.Branch.SelectedID != 0 {
		t.Errorf("branch selection = %d, want none", state.Branch.SelectedID)
	}
	if state.Semester.Phase != PhaseUnselected {
		t.Errorf("semester phase = %s, want unselected", state.Semester.Phase)
	}
}

func TestSelectResetsDescendants(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	if err := session.Select(context.Background(), LevelBranch, 2); err != nil {
		t.Fatalf("Select: %v", err)
	}

	state := session.State()
	if state.Branch.SelectedID != 2 {
		t.Errorf("branch selection = %d, want 2", state.Branch.SelectedID)
	}
	if state.Semester.SelectedID != 21 {
		t.Errorf("semester selection = %d, want 21", state.Semester.SelectedID)
	}
	if state.Subject.SelectedID != 211 {
		t.Errorf("subject selection = %d, want 211", state.Subject.SelectedID)
	}
}

func TestSelectUnknownIDFails(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	if err := session.Select(context.Background(), LevelBranch, 99); err == nil {
		t.Fatal("expected error selecting an id that is not listed")
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	// The load for branch 1's semesters stalls; meanwhile the admin picks
	// branch 2. When the stalled load finally lands it must be dropped.
	loader.resetCalls()
	gate := loader.blockOn(LevelSemester, 1)

	done := make(chan struct{})
	go func() {
		session.Select(context.Background(), LevelBranch, 1)
		close(done)
	}()

	// Wait until the slow load is in flight, then supersede it.
	<-loaderCalled(loader, LevelSemester, 1)
	if err := session.Select(context.Background(), LevelBranch, 2); err != nil {
		t.Fatalf("Select: %v", err)
	}

	close(gate)
	<-done

	state := session.State()
	if state.Branch.SelectedID != 2 {
		t.Errorf("branch selection = %d, want 2", state.Branch.SelectedID)
	}
	if state.Semester.SelectedID != 21 {
		t.Errorf("semester selection = %d, want 21 (stale load must not win)", state.Semester.SelectedID)
	}
}

// loaderCalled signals once the fake loader has seen a call for the key
func loaderCalled(loader *fakeLoader, level Level, parentID uint) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		k := key(level, parentID)
		for {
			loader.mu.Lock()
			for _, c := range loader.calls {
				if c == k {
					loader.mu.Unlock()
					close(ch)
					return
				}
			}
			loader.mu.Unlock()
			time.Sleep(time.Millisecond)
		}
	}()
	return ch
}

func TestLoadErrorKeepsLastGoodList(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	loader.failWith(LevelSemester, 2, errors.New("db down"))
	if err := session.Select(context.Background(), LevelBranch, 2); err != nil {
		t.Fatalf("Select: %v", err)
	}

	state := session.State()
	if state.Semester.Phase != PhaseError {
		t.Fatalf("semester phase = %s, want error", state.Semester.Phase)
	}
	if state.Semester.Error == "" {
		t.Error("expected error message in state")
	}
	// The previous list survives the failure
	if len(state.Semester.Entries) == 0 {
		t.Error("expected last-good semester list to be preserved")
	}
}

func TestClearDeletedDropsSelectionAndDescendants(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	session.ClearDeleted(LevelBranch, 1)

	state := session.State()
	if state.Branch.SelectedID != 0 {
		t.Errorf("branch selection = %d, want cleared", state.Branch.SelectedID)
	}
	for _, e := range state.Branch.Entries {
		if e.ID == 1 {
			t.Error("deleted branch still listed")
		}
	}
	if state.Semester.Phase != PhaseUnselected {
		t.Errorf("semester phase = %s, want unselected", state.Semester.Phase)
	}
	if state.Subject.Phase != PhaseUnselected {
		t.Errorf("subject phase = %s, want unselected", state.Subject.Phase)
	}
}

func TestClearDeletedUnselectedEntryOnlyShrinksList(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	session := NewSession(1, loader)
	session.Refresh(context.Background())

	// Branch 2 is listed but not selected
	session.ClearDeleted(LevelBranch, 2)

	state := session.State()
	if state.Branch.SelectedID != 1 {
		t.Errorf("branch selection = %d, want 1 untouched", state.Branch.SelectedID)
	}
	if len(state.Branch.Entries) != 1 {
		t.Errorf("branch list length = %d, want 1", len(state.Branch.Entries))
	}
	if state.Semester.SelectedID != 11 {
		t.Errorf("semester selection = %d, want 11 untouched", state.Semester.SelectedID)
	}
}

func TestRegistryNotifyDeleted(t *testing.T) {
	loader := newFakeLoader()
	seedThreeLevels(loader)

	registry := NewRegistry(loader)
	a := registry.Session(1, 1)
	b := registry.Session(2, 1)
	other := registry.Session(3, 2)

	a.Refresh(context.Background())
	b.Refresh(context.Background())

	registry.NotifyDeleted(1, LevelBranch, 1)

	if got := a.State().Branch.SelectedID; got != 0 {
		t.Errorf("session a branch selection = %d, want cleared", got)
	}
	if got := b.State().Branch.SelectedID; got != 0 {
		t.Errorf("session b branch selection = %d, want cleared", got)
	}
	// A session scoped to a different university is untouched
	if got := other.State().Branch.Phase; got != PhaseUnselected {
		t.Errorf("other university session phase = %s, want unselected", got)
	}
}
