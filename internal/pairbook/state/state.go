// Package state owns the in-memory collections (pairs, characters, reports,
// fortune) and is the single mutation choke point of the service.
//
// Every mutation takes the lock, computes the next version of the affected
// collection, and performs one replacing write through the persistence
// boundary before returning. Readers get copies. This is last-writer-wins by
// construction; there is no merge and no optimistic-concurrency check, which
// is acceptable because the service runs a single active session.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyj/pairbook/internal/pairbook/dialogue"
	"github.com/soyj/pairbook/internal/pairbook/model"
	"github.com/soyj/pairbook/internal/pairbook/store"
)

// ErrNotFound is returned when a pair, character, or todo id resolves to
// nothing the caller is allowed to treat as an error. Weak character
// references inside pairs do NOT use this: a dangling Char1ID/Char2ID is
// "capability absent", not a failure.
var ErrNotFound = errors.New("state: not found")

// ErrNoFortuneChar is returned by DrawFortune when no fortune character has
// been assigned yet.
var ErrNoFortuneChar = errors.New("state: no fortune character assigned")

// State holds the live collections and serializes all mutations.
type State struct {
	mu    sync.Mutex
	store store.Store
	gen   *dialogue.Generator

	now   func() time.Time
	randn func(n int) int

	pairs         []model.Pair
	characters    []model.Character
	reports       []model.Report
	fortune       *model.DailyFortune
	fortuneCharID string

	// bubbles is transient speech-bubble state keyed by todo id. Never
	// persisted; lost on restart.
	bubbles map[string]model.Bubble

	// selectedDay is the day the UI is anchored to; the reconciler advances
	// it across midnight.
	selectedDay time.Time
}

// New creates a State over the given persistence backend and dialogue
// generator. Call Load before use.
func New(s store.Store, gen *dialogue.Generator) *State {
	return &State{
		store:       s,
		gen:         gen,
		now:         time.Now,
		randn:       rand.Intn,
		bubbles:     make(map[string]model.Bubble),
		selectedDay: time.Now(),
	}
}

// SetClock overrides the wall clock, for tests.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.selectedDay = now()
}

// SetRand overrides the random source, for tests.
func (s *State) SetRand(randn func(int) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.randn = randn
}

// Load reads every snapshot key from the store into memory. Absent keys load
// as empty collections; a snapshot that exists but fails to decode is an
// error, since silently dropping user data is worse than refusing to start.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := loadKey(ctx, s.store, store.KeyPairs, &s.pairs); err != nil {
		return err
	}
	if err := loadKey(ctx, s.store, store.KeyCharacters, &s.characters); err != nil {
		return err
	}
	if err := loadKey(ctx, s.store, store.KeyReports, &s.reports); err != nil {
		return err
	}
	if err := loadKey(ctx, s.store, store.KeyFortune, &s.fortune); err != nil {
		return err
	}
	if err := loadKey(ctx, s.store, store.KeyFortuneChar, &s.fortuneCharID); err != nil {
		return err
	}
	return nil
}

func loadKey[T any](ctx context.Context, st store.Store, key store.Key, dst *T) error {
	data, found, err := st.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", key, err)
	}
	return nil
}

// --- persistence (callers hold the lock) -------------------------------------

func (s *State) persist(ctx context.Context, key store.Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", key, err)
	}
	if err := s.store.Write(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// --- readers ------------------------------------------------------------------

// Pairs returns a copy of the pairs collection.
func (s *State) Pairs() []model.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Pair, len(s.pairs))
	copy(out, s.pairs)
	for i := range out {
		todos := make([]model.Todo, len(out[i].Todos))
		copy(todos, out[i].Todos)
		out[i].Todos = todos
	}
	return out
}

// Characters returns a copy of the characters collection.
func (s *State) Characters() []model.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Character, len(s.characters))
	copy(out, s.characters)
	return out
}

// Reports returns a copy of the report log.
func (s *State) Reports() []model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Fortune returns the current daily fortune, or nil if never drawn.
func (s *State) Fortune() *model.DailyFortune {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fortune == nil {
		return nil
	}
	f := *s.fortune
	return &f
}

// FortuneCharID returns the assigned fortune character id ("" when unset).
func (s *State) FortuneCharID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fortuneCharID
}

// Pair returns the pair with the given id.
func (s *State) Pair(id string) (model.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pairs {
		if p.ID == id {
			todos := make([]model.Todo, len(p.Todos))
			copy(todos, p.Todos)
			p.Todos = todos
			return p, nil
		}
	}
	return model.Pair{}, fmt.Errorf("pair %s: %w", id, ErrNotFound)
}

// LookupCharacter resolves a weak character reference. A missing id is not an
// error; the boolean is false and callers must skip character-dependent work.
func (s *State) LookupCharacter(id string) (model.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupCharacterLocked(id)
}

func (s *State) lookupCharacterLocked(id string) (model.Character, bool) {
	if id == "" {
		return model.Character{}, false
	}
	for _, c := range s.characters {
		if c.ID == id {
			return c, true
		}
	}
	return model.Character{}, false
}

// RandomAssignedCharacter picks uniformly at random between the pair's
// assigned character slots (empty slots are skipped) and resolves the pick.
// Matching the weak-reference policy, a pick that resolves to a deleted
// character comes back false rather than falling through to the other slot.
func (s *State) RandomAssignedCharacter(p model.Pair) (model.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := p.CharIDs()
	if len(ids) == 0 {
		return model.Character{}, false
	}
	return s.lookupCharacterLocked(ids[s.randn(len(ids))])
}

// --- bubbles ------------------------------------------------------------------

// Bubble returns the active bubble for a todo, if any.
func (s *State) Bubble(todoID string) (model.Bubble, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bubbles[todoID]
	return b, ok
}

// Bubbles returns a copy of all active bubbles keyed by todo id.
func (s *State) Bubbles() map[string]model.Bubble {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.Bubble, len(s.bubbles))
	for k, v := range s.bubbles {
		out[k] = v
	}
	return out
}

// SetBubble records (or replaces) the bubble for a todo. Writing a bubble for
// a todo that has since been expired is harmless: the key is simply never
// read again.
func (s *State) SetBubble(todoID string, b model.Bubble) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bubbles[todoID] = b
}

// --- selected day -------------------------------------------------------------

// SelectedDay returns the day the session is anchored to.
func (s *State) SelectedDay() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDay
}

// SetSelectedDay re-anchors the session day.
func (s *State) SetSelectedDay(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDay = t
}

// --- characters ---------------------------------------------------------------

// CreateCharacter validates and appends a new character.
func (s *State) CreateCharacter(ctx context.Context, in CharacterInput) (model.Character, error) {
	if err := Validate(in); err != nil {
		return model.Character{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Character{
		ID:              uuid.New().String(),
		Name:            in.Name,
		Personality:     in.Personality,
		DetailedSetting: in.DetailedSetting,
		SampleDialogue:  in.SampleDialogue,
		ImageURL:        in.ImageURL,
		Reports:         []string{},
	}
	next := append(append([]model.Character{}, s.characters...), c)
	if err := s.persist(ctx, store.KeyCharacters, next); err != nil {
		return model.Character{}, err
	}
	s.characters = next
	return c, nil
}

// UpdateCharacter validates and replaces the profile fields of an existing
// character. The accumulated Reports history is preserved.
func (s *State) UpdateCharacter(ctx context.Context, id string, in CharacterInput) (model.Character, error) {
	if err := Validate(in); err != nil {
		return model.Character{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Character, len(s.characters))
	copy(next, s.characters)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		next[i].Name = in.Name
		next[i].Personality = in.Personality
		next[i].DetailedSetting = in.DetailedSetting
		next[i].SampleDialogue = in.SampleDialogue
		next[i].ImageURL = in.ImageURL
		if err := s.persist(ctx, store.KeyCharacters, next); err != nil {
			return model.Character{}, err
		}
		s.characters = next
		return next[i], nil
	}
	return model.Character{}, fmt.Errorf("character %s: %w", id, ErrNotFound)
}

// DeleteCharacter removes a character. Pairs referencing it are left alone:
// their Char1ID/Char2ID dangle by design and resolve to "no assigned
// character" from then on.
func (s *State) DeleteCharacter(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Character, 0, len(s.characters))
	found := false
	for _, c := range s.characters {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		return fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err := s.persist(ctx, store.KeyCharacters, next); err != nil {
		return err
	}
	s.characters = next
	return nil
}

// --- pairs --------------------------------------------------------------------

// CreatePair validates and appends a new pair with an empty todo list.
func (s *State) CreatePair(ctx context.Context, in PairInput) (model.Pair, error) {
	if err := Validate(in); err != nil {
		return model.Pair{}, err
	}
	anniversary, err := time.ParseInLocation(model.DateLayout, in.AnniversaryDate, time.Local)
	if err != nil {
		return model.Pair{}, fmt.Errorf("parse anniversary date: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Pair{
		ID:              uuid.New().String(),
		Name:            in.Name,
		Description:     in.Description,
		AnniversaryDate: anniversary,
		ImageURL:        in.ImageURL,
		Char1ID:         in.Char1ID,
		Char2ID:         in.Char2ID,
		CreatedAt:       s.now(),
		Todos:           []model.Todo{},
	}
	next := append(append([]model.Pair{}, s.pairs...), p)
	if err := s.persist(ctx, store.KeyPairs, next); err != nil {
		return model.Pair{}, err
	}
	s.pairs = next
	return p, nil
}

// UpdatePair validates and replaces the profile fields of an existing pair,
// keeping its todos and creation time.
func (s *State) UpdatePair(ctx context.Context, id string, in PairInput) (model.Pair, error) {
	if err := Validate(in); err != nil {
		return model.Pair{}, err
	}
	anniversary, err := time.ParseInLocation(model.DateLayout, in.AnniversaryDate, time.Local)
	if err != nil {
		return model.Pair{}, fmt.Errorf("parse anniversary date: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Pair, len(s.pairs))
	copy(next, s.pairs)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		next[i].Name = in.Name
		next[i].Description = in.Description
		next[i].AnniversaryDate = anniversary
		next[i].ImageURL = in.ImageURL
		next[i].Char1ID = in.Char1ID
		next[i].Char2ID = in.Char2ID
		if err := s.persist(ctx, store.KeyPairs, next); err != nil {
			return model.Pair{}, err
		}
		s.pairs = next
		return next[i], nil
	}
	return model.Pair{}, fmt.Errorf("pair %s: %w", id, ErrNotFound)
}

// DeletePair removes a pair together with its todos.
func (s *State) DeletePair(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Pair, 0, len(s.pairs))
	found := false
	for _, p := range s.pairs {
		if p.ID == id {
			found = true
			continue
		}
		next = append(next, p)
	}
	if !found {
		return fmt.Errorf("pair %s: %w", id, ErrNotFound)
	}
	if err := s.persist(ctx, store.KeyPairs, next); err != nil {
		return err
	}
	s.pairs = next
	return nil
}

// ReplacePairs swaps in a new version of the whole pairs collection and
// persists it in one write. This is the reconciler's batched-write entry
// point after todo expiry.
func (s *State) ReplacePairs(ctx context.Context, pairs []model.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, store.KeyPairs, pairs); err != nil {
		return err
	}
	s.pairs = pairs
	return nil
}

// --- todos --------------------------------------------------------------------

// AddTodo validates and appends a todo to the pair.
func (s *State) AddTodo(ctx context.Context, pairID string, in TodoInput) (model.Todo, error) {
	if err := Validate(in); err != nil {
		return model.Todo{}, err
	}
	if _, err := time.ParseInLocation(model.DateLayout, in.Date, time.Local); err != nil {
		return model.Todo{}, fmt.Errorf("parse todo date: %w", err)
	}
	if _, err := time.ParseInLocation(model.TimeLayout, in.Time, time.Local); err != nil {
		return model.Todo{}, fmt.Errorf("parse todo time: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := model.Todo{
		ID:   uuid.New().String(),
		Text: in.Text,
		Date: in.Date,
		Time: in.Time,
	}
	next := make([]model.Pair, len(s.pairs))
	copy(next, s.pairs)
	for i := range next {
		if next[i].ID != pairID {
			continue
		}
		next[i].Todos = append(append([]model.Todo{}, next[i].Todos...), t)
		if err := s.persist(ctx, store.KeyPairs, next); err != nil {
			return model.Todo{}, err
		}
		s.pairs = next
		return t, nil
	}
	return model.Todo{}, fmt.Errorf("pair %s: %w", pairID, ErrNotFound)
}

// ToggleTodo flips a todo's completed flag. On the transition to completed it
// stamps CompletedAt and kicks off a praise-dialogue request for a random
// assigned character; the resulting bubble lands asynchronously, after the
// state write is already visible. On the transition back to pending it clears
// CompletedAt and leaves any existing bubble untouched.
func (s *State) ToggleTodo(ctx context.Context, pairID, todoID string) (model.Todo, error) {
	s.mu.Lock()

	var (
		toggled model.Todo
		praise  *model.Character
		found   bool
	)
	next := make([]model.Pair, len(s.pairs))
	copy(next, s.pairs)
	for i := range next {
		if next[i].ID != pairID {
			continue
		}
		todos := make([]model.Todo, len(next[i].Todos))
		copy(todos, next[i].Todos)
		for j := range todos {
			if todos[j].ID != todoID {
				continue
			}
			found = true
			if todos[j].Completed {
				todos[j].Completed = false
				todos[j].CompletedAt = nil
			} else {
				todos[j].Completed = true
				now := s.now()
				todos[j].CompletedAt = &now

				ids := next[i].CharIDs()
				if len(ids) > 0 {
					if c, ok := s.lookupCharacterLocked(ids[s.randn(len(ids))]); ok {
						praise = &c
					}
				}
			}
			toggled = todos[j]
			break
		}
		if !found {
			break
		}
		next[i].Todos = todos
		if err := s.persist(ctx, store.KeyPairs, next); err != nil {
			s.mu.Unlock()
			return model.Todo{}, err
		}
		s.pairs = next
		break
	}
	s.mu.Unlock()

	if !found {
		return model.Todo{}, fmt.Errorf("todo %s in pair %s: %w", todoID, pairID, ErrNotFound)
	}

	if praise != nil {
		char := *praise
		taskName := toggled.Text
		go func() {
			msg := s.gen.CharacterDialogue(context.WithoutCancel(ctx), char, dialogue.ContextPraise, dialogue.Data{TaskName: taskName})
			s.SetBubble(todoID, model.Bubble{Text: msg, CharID: char.ID})
		}()
	}
	return toggled, nil
}

// --- reports ------------------------------------------------------------------

// AddReport validates and appends a feedback report, mirroring its content
// into the target character's Reports history. Both collections are persisted;
// the report log first, so a failure between the writes cannot lose the
// user-visible entry.
func (s *State) AddReport(ctx context.Context, in ReportInput) (model.Report, error) {
	if err := Validate(in); err != nil {
		return model.Report{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	char, ok := s.lookupCharacterLocked(in.CharID)
	if !ok {
		return model.Report{}, fmt.Errorf("character %s: %w", in.CharID, ErrNotFound)
	}

	r := model.Report{
		ID:        uuid.New().String(),
		CharID:    char.ID,
		CharName:  char.Name,
		Content:   in.Content,
		Timestamp: s.now(),
	}
	nextReports := append(append([]model.Report{}, s.reports...), r)
	if err := s.persist(ctx, store.KeyReports, nextReports); err != nil {
		return model.Report{}, err
	}
	s.reports = nextReports

	nextChars := make([]model.Character, len(s.characters))
	copy(nextChars, s.characters)
	for i := range nextChars {
		if nextChars[i].ID == char.ID {
			nextChars[i].Reports = append(append([]string{}, nextChars[i].Reports...), in.Content)
			break
		}
	}
	if err := s.persist(ctx, store.KeyCharacters, nextChars); err != nil {
		return model.Report{}, err
	}
	s.characters = nextChars
	return r, nil
}

// --- fortune ------------------------------------------------------------------

// SetFortuneChar assigns (and persists) the character used for fortune draws.
func (s *State) SetFortuneChar(ctx context.Context, charID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookupCharacterLocked(charID); !ok {
		return fmt.Errorf("character %s: %w", charID, ErrNotFound)
	}
	if err := s.persist(ctx, store.KeyFortuneChar, charID); err != nil {
		return err
	}
	s.fortuneCharID = charID
	return nil
}

// DrawFortune draws a uniformly random tier from the fortune ladder, asks the
// assigned character to interpret it, and persists the resulting record. A
// redraw on the same day overwrites the previous one. Returns
// ErrNoFortuneChar when no fortune character has been assigned, and
// ErrNotFound when the assignment dangles.
func (s *State) DrawFortune(ctx context.Context) (model.DailyFortune, error) {
	s.mu.Lock()
	if s.fortuneCharID == "" {
		s.mu.Unlock()
		return model.DailyFortune{}, ErrNoFortuneChar
	}
	char, ok := s.lookupCharacterLocked(s.fortuneCharID)
	if !ok {
		s.mu.Unlock()
		return model.DailyFortune{}, fmt.Errorf("fortune character %s: %w", s.fortuneCharID, ErrNotFound)
	}
	level := model.FortuneLevels[s.randn(len(model.FortuneLevels))]
	day := s.selectedDay.Format(model.DateLayout)
	s.mu.Unlock()

	// Generation happens outside the lock; it may take seconds.
	msg := s.gen.CharacterDialogue(ctx, char, dialogue.ContextFortune, dialogue.Data{FortuneLevel: level})

	s.mu.Lock()
	defer s.mu.Unlock()
	f := model.DailyFortune{
		LastDrawDate:  day,
		CharacterID:   char.ID,
		CharacterName: char.Name,
		Message:       msg,
		ResultLevel:   level,
	}
	if err := s.persist(ctx, store.KeyFortune, &f); err != nil {
		return model.DailyFortune{}, err
	}
	s.fortune = &f
	return f, nil
}
