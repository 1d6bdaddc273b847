// Package translator provides machine translation between language codes.
package translator

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when the text to translate is empty. The service
// rejects zero-length inputs, so callers must filter empty fields before
// translating.
var ErrEmptyInput = errors.New("translator: empty input")

// Translator maps a text from one natural-language code to another.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}
