package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a card could not be resolved.
type Kind int

const (
	// NoImplicitReference: no name was given and the channel has no mention.
	NoImplicitReference Kind = iota + 1
	// NotFound: the lookup returned no cards.
	NotFound
	// Ambiguous: the lookup returned more than one card.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case NoImplicitReference:
		return "no_implicit_reference"
	case NotFound:
		return "not_found"
	case Ambiguous:
		return "ambiguous"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// maxCandidates caps how many names an ambiguity message lists.
const maxCandidates = 10

const noReferenceMessage = "Please either specify a card name, or make sure to mention a card using an inline reference beforehand."

// ResolutionError is a user-facing resolution failure. Error returns a message
// meant to be shown in chat as-is.
type ResolutionError struct {
	Kind Kind
	// Name is the requested card name; empty for NoImplicitReference.
	Name string
	// Candidates lists the matching card names for Ambiguous.
	Candidates []string
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case NoImplicitReference:
		return noReferenceMessage
	case NotFound:
		return fmt.Sprintf("I could not find any results for **'%s'**!", e.Name)
	case Ambiguous:
		var b strings.Builder
		fmt.Fprintf(&b, "There were too many results for **'%s'**. Did you perhaps mean to pick any of the following?\n", e.Name)
		for i, name := range e.Candidates {
			if i == maxCandidates {
				fmt.Fprintf(&b, "\n...and %d more", len(e.Candidates)-maxCandidates)
				break
			}
			fmt.Fprintf(&b, "\n - %s", name)
		}
		return b.String()
	}
	return "resolve: unknown resolution failure"
}

// IsResolution reports whether err is, or wraps, a *ResolutionError.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// KindOf returns the Kind of the *ResolutionError in err's chain, or 0.
func KindOf(err error) Kind {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
