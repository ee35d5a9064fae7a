package roadmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid roadmap")

// Validate checks that every node has an ID and a name, and that IDs are
// unique: topic IDs across the roadmap, subtopic IDs within their topic.
func (r Roadmap) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	topics := make(map[string]struct{}, len(r.Topics))
	for _, t := range r.Topics {
		if _, dup := topics[t.ID]; dup {
			return fmt.Errorf("%w: topic %q: %w", ErrInvalid, t.ID, ErrDuplicateID)
		}
		topics[t.ID] = struct{}{}

		subs := make(map[string]struct{}, len(t.Subtopics))
		for _, s := range t.Subtopics {
			if _, dup := subs[s.ID]; dup {
				return fmt.Errorf("%w: subtopic %q in topic %q: %w", ErrInvalid, s.ID, t.ID, ErrDuplicateID)
			}
			subs[s.ID] = struct{}{}
		}
	}
	return nil
}
