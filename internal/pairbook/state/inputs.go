package state

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps input-validation failures so handlers can map them to a
// 400 without inspecting validator internals.
var ErrInvalid = errors.New("state: invalid input")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation over an input and wraps any failure in
// ErrInvalid. An empty required field blocks the save; there is no partial
// acceptance.
func Validate(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	return nil
}

// CharacterInput carries the editable fields of a character profile.
type CharacterInput struct {
	Name            string `json:"name" validate:"required"`
	Personality     string `json:"personality"`
	DetailedSetting string `json:"detailed_setting"`
	SampleDialogue  string `json:"sample_dialogue"`
	ImageURL        string `json:"image_url" validate:"omitempty,url"`
}

// PairInput carries the editable fields of a pair. Both character slots are
// required on save, matching the form's refusal to proceed without them; they
// may still dangle later if the character is deleted.
type PairInput struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	AnniversaryDate string `json:"anniversary_date" validate:"required"`
	ImageURL        string `json:"image_url" validate:"omitempty,url"`
	Char1ID         string `json:"char1_id" validate:"required"`
	Char2ID         string `json:"char2_id" validate:"required"`
}

// TodoInput carries a new todo's fields.
type TodoInput struct {
	Text string `json:"text" validate:"required"`
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// ReportInput carries a new feedback report.
type ReportInput struct {
	CharID  string `json:"char_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}
