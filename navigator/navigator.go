package navigator

import (
	"context"
	"sync"

	"github.com/campusmind/console-api/utils/apperr"
)

// Level identifies one tier of the catalog hierarchy
type Level int

const (
	LevelBranch Level = iota
	LevelSemester
	LevelSubject
	levelCount
)

func (l Level) String() string {
	switch l {
	case LevelBranch:
		return "branch"
	case LevelSemester:
		return "semester"
	case LevelSubject:
		return "subject"
	}
	return "unknown"
}

// ParseLevel maps a route segment to a Level
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "branch", "branches":
		return LevelBranch, true
	case "semester", "semesters":
		return LevelSemester, true
	case "subject", "subjects":
		return LevelSubject, true
	}
	return 0, false
}

// Phase is the lifecycle state of one level
type Phase string

const (
	PhaseUnselected Phase = "unselected"
	PhaseLoading    Phase = "loading"
	PhaseLoaded     Phase = "loaded"
	PhaseError      Phase = "error"
)

// Entry is one selectable item in a level's list
type Entry struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// Loader fetches the entries of a level. For LevelBranch the parent is the
// session's university and parentID is ignored; for the other levels
// parentID is the selected id one level up.
type Loader interface {
	Load(ctx context.Context, universityID uint, level Level, parentID uint) ([]Entry, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, universityID uint, level Level, parentID uint) ([]Entry, error)

func (f LoaderFunc) Load(ctx context.Context, universityID uint, level Level, parentID uint) ([]Entry, error) {
	return f(ctx, universityID, level, parentID)
}

type levelState struct {
	phase    Phase
	list     []Entry
	selected uint
	err      error
	epoch    uint64
}

// LevelView is an immutable snapshot of one level
type LevelView struct {
	Phase      Phase   `json:"phase"`
	Entries    []Entry `json:"entries"`
	SelectedID uint    `json:"selected_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// State is an immutable snapshot of the whole hierarchy selection
type State struct {
	Branch   LevelView `json:"branch"`
	Semester LevelView `json:"semester"`
	Subject  LevelView `json:"subject"`
}

// Session keeps a consistent "currently selected branch / semester /
// subject" view for one admin. Each load is tagged with the epoch of the
// selection that issued it; completions carrying a stale epoch are
// discarded, so the last selection always wins.
type Session struct {
	mu           sync.Mutex
	loader       Loader
	universityID uint
	levels       [levelCount]levelState
	epoch        uint64
}

// NewSession creates a session scoped to one university
func NewSession(universityID uint, loader Loader) *Session {
	s := &Session{
		loader:       loader,
		universityID: universityID,
	}
	for i := range s.levels {
		s.levels[i] = levelState{phase: PhaseUnselected}
	}
	return s
}

// Refresh reloads the branch level (and, via default selection, everything
// beneath it).
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	epoch := s.beginLoad(LevelBranch)
	s.mu.Unlock()

	s.runLoad(ctx, LevelBranch, 0, epoch)
}

// Select changes the selection at a level. Descendant levels reset to
// Unselected before the child load is issued, so no stale children are ever
// observable under the new parent.
func (s *Session) Select(ctx context.Context, level Level, id uint) error {
	s.mu.Lock()
	st := &s.levels[level]
	if st.phase != PhaseLoaded && st.phase != PhaseError {
		s.mu.Unlock()
		return apperr.Conflictf("%s level is not loaded", level)
	}
	found := false
	for _, e := range st.list {
		if e.ID == id {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return apperr.NotFoundf("%s %d is not in the current list", level, id)
	}
	st.selected = id
	s.resetDescendants(level)

	child := level + 1
	if child >= levelCount {
		s.mu.Unlock()
		return nil
	}
	epoch := s.beginLoad(child)
	s.mu.Unlock()

	s.runLoad(ctx, child, id, epoch)
	return nil
}

// ClearDeleted drops id from a level after a cascade delete. If it was the
// current selection, the selection and every descendant level are cleared.
func (s *Session) ClearDeleted(level Level, id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.levels[level]
	kept := st.list[:0]
	for _, e := range st.list {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	st.list = kept

	if st.selected == id {
		st.selected = 0
		s.resetDescendants(level)
	}
}

// State returns a snapshot of all three levels
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Branch:   s.viewOf(LevelBranch),
		Semester: s.viewOf(LevelSemester),
		Subject:  s.viewOf(LevelSubject),
	}
}

func (s *Session) viewOf(level Level) LevelView {
	st := s.levels[level]
	view := LevelView{
		Phase:      st.phase,
		SelectedID: st.selected,
	}
	view.Entries = append(view.Entries, st.list...)
	if st.err != nil {
		view.Error = st.err.Error()
	}
	return view
}

// beginLoad marks a level Loading and returns the epoch of this load.
// The last-good list survives so an operator is not stranded on failure.
// Caller must hold mu.
func (s *Session) beginLoad(level Level) uint64 {
	s.epoch++
	st := &s.levels[level]
	st.phase = PhaseLoading
	st.selected = 0
	st.err = nil
	st.epoch = s.epoch
	return s.epoch
}

// resetDescendants forces every level below the given one back to
// Unselected and invalidates their in-flight loads. Caller must hold mu.
func (s *Session) resetDescendants(level Level) {
	for l := level + 1; l < levelCount; l++ {
		s.epoch++
		s.levels[l] = levelState{phase: PhaseUnselected, epoch: s.epoch}
	}
}

// runLoad performs the fetch outside the lock and applies the result only
// if the epoch is still current. On success with a non-empty list, the
// first entry becomes the default selection and the next level loads.
func (s *Session) runLoad(ctx context.Context, level Level, parentID uint, epoch uint64) {
	list, err := s.loader.Load(ctx, s.universityID, level, parentID)

	// A parent deleted underneath us reads as "parent became empty",
	// not a fatal error.
	if err != nil && apperr.IsNotFound(err) {
		list, err = nil, nil
	}

	s.mu.Lock()
	st := &s.levels[level]
	if st.epoch != epoch {
		// A newer selection superseded this load; drop it.
		s.mu.Unlock()
		return
	}

	if err != nil {
		st.phase = PhaseError
		st.err = err
		s.mu.Unlock()
		return
	}

	st.phase = PhaseLoaded
	st.list = list
	st.err = nil

	if len(list) == 0 {
		s.mu.Unlock()
		return
	}

	// Deterministic default: first entry by list order.
	st.selected = list[0].ID
	child := level + 1
	if child >= levelCount {
		s.mu.Unlock()
		return
	}
	childEpoch := s.beginLoad(child)
	childParent := st.selected
	s.mu.Unlock()

	s.runLoad(ctx, child, childParent, childEpoch)
}
