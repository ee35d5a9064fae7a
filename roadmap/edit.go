package roadmap

import "errors"

// Edit kinds accepted by the mutator.
const (
	KindAddTopic       = "add_topic"
	KindRemoveTopic    = "remove_topic"
	KindRenameTopic    = "rename_topic"
	KindAddSubtopic    = "add_subtopic"
	KindRemoveSubtopic = "remove_subtopic"
	KindRenameSubtopic = "rename_subtopic"
	KindReplace        = "replace"
	KindRefine         = "refine"
)

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrSubtopicNotFound = errors.New("subtopic not found")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrUnknownEdit      = errors.New("unknown edit kind")
	ErrEmptyName        = errors.New("name must not be empty")
)

// Edit is a single structural change to a roadmap.
// Which fields are read depends on Kind.
type Edit struct {
	Kind       string   `json:"kind"`
	TopicID    string   `json:"topicId,omitempty"`
	SubtopicID string   `json:"subtopicId,omitempty"`
	Name       string   `json:"name,omitempty"`
	Roadmap    *Roadmap `json:"roadmap,omitempty"` // replace only
}

// NewAddTopic creates an edit appending a topic named name.
func NewAddTopic(name string) Edit {
	return Edit{Kind: KindAddTopic, Name: name}
}

// NewRemoveTopic creates an edit removing the topic with topicID.
func NewRemoveTopic(topicID string) Edit {
	return Edit{Kind: KindRemoveTopic, TopicID: topicID}
}

// NewRenameTopic creates an edit renaming a topic.
func NewRenameTopic(topicID, name string) Edit {
	return Edit{Kind: KindRenameTopic, TopicID: topicID, Name: name}
}

// NewAddSubtopic creates an edit appending a subtopic to a topic.
func NewAddSubtopic(topicID, name string) Edit {
	return Edit{Kind: KindAddSubtopic, TopicID: topicID, Name: name}
}

// NewRemoveSubtopic creates an edit removing a subtopic.
func NewRemoveSubtopic(topicID, subtopicID string) Edit {
	return Edit{Kind: KindRemoveSubtopic, TopicID: topicID, SubtopicID: subtopicID}
}

// NewRenameSubtopic creates an edit renaming a subtopic.
func NewRenameSubtopic(topicID, subtopicID, name string) Edit {
	return Edit{Kind: KindRenameSubtopic, TopicID: topicID, SubtopicID: subtopicID, Name: name}
}

// NewRefine creates an edit that marks every topic as refined.
func NewRefine() Edit {
	return Edit{Kind: KindRefine}
}

// NewReplace creates a bulk regeneration edit that swaps in doc wholesale.
func NewReplace(doc Roadmap) Edit {
	return Edit{Kind: KindReplace, Roadmap: &doc}
}
