package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OutlineError reports an outline answer that could not be used. Raw holds the
// model output verbatim.
type OutlineError struct {
	Raw string
	Err error
}

func (e *OutlineError) Error() string {
	return fmt.Sprintf("outline: %v", e.Err)
}

func (e *OutlineError) Unwrap() error { return e.Err }

// ParseOutline decodes and validates an outline. The text is used as is: no code
// fence stripping or other repair is attempted.
func ParseOutline(raw string) (Outline, error) {
	var o Outline
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return Outline{}, &OutlineError{Raw: raw, Err: err}
	}
	if len(o.Sections) == 0 {
		return Outline{}, &OutlineError{Raw: raw, Err: errors.New("no sections")}
	}
	for i, s := range o.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return Outline{}, &OutlineError{Raw: raw, Err: fmt.Errorf("section %d has no title", i+1)}
		}
	}
	return o, nil
}

// BuildOutline requests and parses the outline for an approved title.
func (a *Agent) BuildOutline(ctx context.Context, title string) (Outline, error) {
	raw, err := a.Generate(ctx, BlogOutlinePrompt(title))
	if err != nil {
		return Outline{}, err
	}
	return ParseOutline(raw)
}
