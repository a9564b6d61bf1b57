// Package session holds the operator workflow over the inventory: fetch the items,
// pick some of them and apply one stock delta to the picked set.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fekuna/repairshop-service/internal/inventory"
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	Fetching
	Viewing
	Selecting
	Applying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Viewing:
		return "viewing"
	case Selecting:
		return "selecting"
	case Applying:
		return "applying"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrBusy            = errors.New("session: a backend call is in progress")
	ErrNotLoaded       = errors.New("session: items have not been fetched")
	ErrUnknownItem     = errors.New("session: item is not in the current view")
	ErrNothingSelected = errors.New("session: no items selected")
	// ErrStaleView means an adjustment was committed but the re-read after it failed.
	ErrStaleView = errors.New("session: adjustment applied, view not refreshed")
)

// View is a copy of the session state safe to hand to callers.
type View struct {
	State    State
	Items    []model.InventoryItem
	Selected []string
	Err      error
}

type Session struct {
	uc     inventory.UseCase
	userID string
	logger logger.ZapLogger

	mu       sync.Mutex
	state    State
	items    []model.InventoryItem
	selected map[string]struct{}
	lastErr  error
}

func New(uc inventory.UseCase, userID string, log logger.ZapLogger) *Session {
	return &Session{
		uc:       uc,
		userID:   userID,
		logger:   log,
		selected: make(map[string]struct{}),
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.InventoryItem, len(s.items))
	copy(items, s.items)
	return View{State: s.state, Items: items, Selected: s.selectedIDs(), Err: s.lastErr}
}

// Refresh replaces the item view with a full read and clears the selection.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = Fetching
	s.mu.Unlock()

	return s.fetch(ctx, false)
}

// fetch replaces the view. On error it keeps the old view in Viewing when keepView
// is set and drops to Idle otherwise.
func (s *Session) fetch(ctx context.Context, keepView bool) error {
	items, err := s.uc.FetchAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Error("inventory fetch failed", zap.String("user_id", s.userID), zap.Error(err))
		s.state = Idle
		if keepView {
			s.state = Viewing
		}
		return err
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	s.items = items
	s.selected = make(map[string]struct{})
	s.lastErr = nil
	s.state = Viewing
	return nil
}

func (s *Session) Select(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canSelect(); err != nil {
		return err
	}

	known := make(map[string]struct{}, len(s.items))
	for _, item := range s.items {
		known[item.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%q: %w", id, ErrUnknownItem)
		}
	}
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
	s.settleSelection()
	return nil
}

// SelectMatching selects every item whose name, category or model contains text,
// case-insensitively, and returns how many were added.
func (s *Session) SelectMatching(text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canSelect(); err != nil {
		return 0, err
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	added := 0
	for _, item := range s.items {
		hay := strings.ToLower(item.Name + " " + item.Category + " " + item.Model)
		if needle != "" && !strings.Contains(hay, needle) {
			continue
		}
		if _, ok := s.selected[item.ID]; !ok {
			s.selected[item.ID] = struct{}{}
			added++
		}
	}
	s.settleSelection()
	return added, nil
}

func (s *Session) Deselect(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canSelect(); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.selected, id)
	}
	s.settleSelection()
	return nil
}

// Apply adds delta to every selected item in one commit and re-fetches on success.
// On failure the session drops to Idle with the error recorded and the selection kept,
// so the caller may retry. Once the commit succeeds the selection is cleared; if only
// the re-fetch fails the old view stays and the error wraps ErrStaleView.
func (s *Session) Apply(ctx context.Context, delta int64, reason string) error {
	s.mu.Lock()
	if s.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	ids := s.selectedIDs()
	if len(ids) == 0 {
		s.mu.Unlock()
		return ErrNothingSelected
	}
	s.state = Applying
	s.mu.Unlock()

	err := s.uc.ApplyDelta(ctx, &dto.AdjustStockInput{
		ItemIDs: ids,
		Delta:   delta,
		Reason:  reason,
		UserID:  s.userID,
	})
	if err != nil {
		s.mu.Lock()
		s.state = Idle
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.state = Fetching
	s.mu.Unlock()
	if err := s.fetch(ctx, true); err != nil {
		return fmt.Errorf("%w: %w", ErrStaleView, err)
	}
	return nil
}

func (s *Session) busy() bool {
	return s.state == Fetching || s.state == Applying
}

func (s *Session) canSelect() error {
	if s.busy() {
		return ErrBusy
	}
	if s.items == nil {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) settleSelection() {
	if len(s.selected) > 0 {
		s.state = Selecting
		return
	}
	s.state = Viewing
}

func (s *Session) selectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
