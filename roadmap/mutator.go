package roadmap

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Mutator applies structural edits to a roadmap.
// Implementations must not modify the input document.
type Mutator interface {
	Apply(doc Roadmap, e Edit) (Roadmap, error)
}

// IDFunc generates identifiers for new topics and subtopics.
type IDFunc func() string

// TreeMutator is the default Mutator. Edits address nodes by ID, so
// concurrent editors never need positional transforms.
type TreeMutator struct {
	// NewID defaults to random UUIDs.
	NewID IDFunc
}

func (m *TreeMutator) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func (m *TreeMutator) Apply(doc Roadmap, e Edit) (Roadmap, error) {
	out := doc.Clone()
	switch e.Kind {
	case KindAddTopic:
		name, err := cleanName(e.Name)
		if err != nil {
			return Roadmap{}, fmt.Errorf("%s: %w", e.Kind, err)
		}
		id := e.TopicID
		if id == "" {
			id = m.newID()
		} else if out.topicIndex(id) >= 0 {
			return Roadmap{}, fmt.Errorf("%s %q: %w", e.Kind, id, ErrDuplicateID)
		}
		out.Topics = append(out.Topics, Topic{ID: id, Name: name, Subtopics: []Subtopic{}})

	case KindRemoveTopic:
		i := out.topicIndex(e.TopicID)
		if i < 0 {
			return Roadmap{}, fmt.Errorf("%s %q: %w", e.Kind, e.TopicID, ErrTopicNotFound)
		}
		out.Topics = append(out.Topics[:i], out.Topics[i+1:]...)

	case KindRenameTopic:
		name, err := cleanName(e.Name)
		if err != nil {
			return Roadmap{}, fmt.Errorf("%s: %w", e.Kind, err)
		}
		i := out.topicIndex(e.TopicID)
		if i < 0 {
			return Roadmap{}, fmt.Errorf("%s %q: %w", e.Kind, e.TopicID, ErrTopicNotFound)
		}
		out.Topics[i].Name = name

	case KindAddSubtopic:
		name, err := cleanName(e.Name)
		if err != nil {
			return Roadmap{}, fmt.Errorf("%s: %w", e.Kind, err)
		}
		i := out.topicIndex(e.TopicID)
		if i < 0 {
			return Roadmap{}, fmt.Errorf("%s %q: %w", e.Kind, e.TopicID, ErrTopicNotFound)
		}
		id := e.SubtopicID
		if id == "" {
			id = m.newID()
		} else if out.Topics[i].subtopicIndex(id) >= 0 {
			return Roadmap{}, fmt.Errorf("%s %q: %w", e.Kind, id, ErrDuplicateID)
		}
		out.Topics[i].Subtopics = append(out.Topics[i].Subtopics, Subtopic{ID: id, Name: name})

	case KindRemoveSubtopic:
		i, j, err := out.locate(e)
		if err != nil {
			return Roadmap{}, err
		}
		subs := out.Topics[i].Subtopics
		out.Topics[i].Subtopics = append(subs[:j], subs[j+1:]...)

	case KindRenameSubtopic:
		name, err := cleanName(e.Name)
		if err != nil {
			return Roadmap{}, fmt.Errorf("%s: %w", e.Kind, err)
		}
		i, j, err := out.locate(e)
		if err != nil {
			return Roadmap{}, err
		}
		out.Topics[i].Subtopics[j].Name = name

	case KindReplace:
		if e.Roadmap == nil {
			return Roadmap{}, fmt.Errorf("%s: missing roadmap", e.Kind)
		}
		out = e.Roadmap.Clone()

	case KindRefine:
		out = Refine(out)

	default:
		return Roadmap{}, fmt.Errorf("%q: %w", e.Kind, ErrUnknownEdit)
	}

	if err := out.Validate(); err != nil {
		return Roadmap{}, fmt.Errorf("%s: %w", e.Kind, err)
	}
	return out, nil
}

func (r Roadmap) locate(e Edit) (int, int, error) {
	i := r.topicIndex(e.TopicID)
	if i < 0 {
		return 0, 0, fmt.Errorf("%s %q: %w", e.Kind, e.TopicID, ErrTopicNotFound)
	}
	j := r.Topics[i].subtopicIndex(e.SubtopicID)
	if j < 0 {
		return 0, 0, fmt.Errorf("%s %q/%q: %w", e.Kind, e.TopicID, e.SubtopicID, ErrSubtopicNotFound)
	}
	return i, j, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
