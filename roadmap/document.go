package roadmap

import "fmt"

// Subtopic is a leaf entry of a roadmap topic.
type Subtopic struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Topic is a named group of subtopics. Its ID is stable across renames
// and reordering.
type Topic struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name" validate:"required"`
	Subtopics []Subtopic `json:"subtopics" validate:"dive"`
}

// Roadmap is the editable learning plan: an ordered list of topics.
type Roadmap struct {
	Topics []Topic `json:"topics" validate:"dive"`
}

// Clone returns a deep copy that shares no slices with r.
func (r Roadmap) Clone() Roadmap {
	if r.Topics == nil {
		return Roadmap{}
	}
	topics := make([]Topic, len(r.Topics))
	for i, t := range r.Topics {
		topics[i] = t.Clone()
	}
	return Roadmap{Topics: topics}
}

// Clone returns a deep copy of the topic and its subtopics.
func (t Topic) Clone() Topic {
	cp := t
	if t.Subtopics != nil {
		cp.Subtopics = make([]Subtopic, len(t.Subtopics))
		copy(cp.Subtopics, t.Subtopics)
	}
	return cp
}

// Equal reports whether two roadmaps have the same content.
func (r Roadmap) Equal(o Roadmap) bool {
	if len(r.Topics) != len(o.Topics) {
		return false
	}
	for i := range r.Topics {
		a, b := r.Topics[i], o.Topics[i]
		if a.ID != b.ID || a.Name != b.Name || len(a.Subtopics) != len(b.Subtopics) {
			return false
		}
		for j := range a.Subtopics {
			if a.Subtopics[j] != b.Subtopics[j] {
				return false
			}
		}
	}
	return true
}

func (r Roadmap) topicIndex(id string) int {
	for i, t := range r.Topics {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (t Topic) subtopicIndex(id string) int {
	for i, s := range t.Subtopics {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Topic returns the topic with the given ID.
func (r Roadmap) Topic(id string) (Topic, bool) {
	i := r.topicIndex(id)
	if i < 0 {
		return Topic{}, false
	}
	return r.Topics[i], true
}

// SubtopicCount returns the total number of subtopics across all topics.
func (r Roadmap) SubtopicCount() int {
	n := 0
	for _, t := range r.Topics {
		n += len(t.Subtopics)
	}
	return n
}

func (r Roadmap) String() string {
	return fmt.Sprintf("roadmap(%d topics, %d subtopics)", len(r.Topics), r.SubtopicCount())
}
