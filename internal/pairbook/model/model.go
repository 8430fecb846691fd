// Package model defines the persisted entities of the pairbook domain:
// characters, pairs, todos, feedback reports, and the daily fortune.
//
// Character references held by a Pair (Char1ID/Char2ID) are weak: they are
// plain identifiers resolved through a lookup that may come back empty.
// Deleting a character does not repair pairs that still point at it; a
// missing target is treated as "no assigned character", never as an error.
package model

import (
	"fmt"
	"time"
)

// Layouts for the wall-clock fields on Todo. Todos are anchored to a local
// calendar day and a minute-granularity time of day, matching the exact-minute
// trigger semantics of the reconciliation loop.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Character is a persona profile that drives generated dialogue tone.
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Personality     string   `json:"personality"`
	DetailedSetting string   `json:"detailed_setting"`
	SampleDialogue  string   `json:"sample_dialogue"`
	ImageURL        string   `json:"image_url"`
	// Reports is the append-only history of feedback report contents,
	// duplicated here from the report log so prompt assembly has the full
	// correction history without a join.
	Reports []string `json:"reports"`
}

// Todo is a dated, timed task owned exclusively by its parent Pair.
//
// Invariant: CompletedAt is non-nil iff Completed is true. Toggling back to
// incomplete clears it.
type Todo struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Date        string     `json:"date"` // DateLayout
	Time        string     `json:"time"` // TimeLayout
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DueAt parses the todo's target date+time in the given location.
func (t Todo) DueAt(loc *time.Location) (time.Time, error) {
	due, err := time.ParseInLocation(DateLayout+"T"+TimeLayout, t.Date+"T"+t.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("todo %s: parse due time: %w", t.ID, err)
	}
	return due, nil
}

// Pair is the primary tracked entity: two linked character personas plus a
// shared anniversary and todo list.
type Pair struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	AnniversaryDate time.Time `json:"anniversary_date"`
	ImageURL        string    `json:"image_url"`
	Char1ID         string    `json:"char1_id"`
	Char2ID         string    `json:"char2_id"`
	CreatedAt       time.Time `json:"created_at"`
	Todos           []Todo    `json:"todos"`
}

// CharIDs returns the assigned character references, skipping empty slots.
func (p Pair) CharIDs() []string {
	ids := make([]string, 0, 2)
	if p.Char1ID != "" {
		ids = append(ids, p.Char1ID)
	}
	if p.Char2ID != "" {
		ids = append(ids, p.Char2ID)
	}
	return ids
}

// Report is one user-submitted feedback entry on a character's generated
// dialogue. The log is append-only; Content is also mirrored into the owning
// character's Reports slice.
type Report struct {
	ID        string    `json:"id"`
	CharID    string    `json:"char_id"`
	CharName  string    `json:"char_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyFortune is the singleton once-per-day fortune record. A redraw on the
// same day overwrites it.
type DailyFortune struct {
	LastDrawDate  string `json:"last_draw_date"` // DateLayout
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Message       string `json:"message"`
	ResultLevel   string `json:"result_level"`
}

// FortuneLevels is the nine-tier fortune ladder, best to worst. A draw picks
// one uniformly at random.
var FortuneLevels = []string{
	"Great Fortune",
	"Middle Fortune",
	"Small Fortune",
	"Fortune",
	"Neutral",
	"Misfortune",
	"Small Misfortune",
	"Middle Misfortune",
	"Great Misfortune",
}

// Bubble is the transient speech-bubble annotation attached to a todo. It is
// never persisted: bubbles live in process memory, are overwritten by later
// dialogue for the same todo, and vanish on restart.
type Bubble struct {
	Text   string `json:"text"`
	CharID string `json:"char_id"`
}
