package history

import (
	"encoding/json"
	"fmt"

	"github.com/alimasry/roadmap-planner/roadmap"
)

// Codec produces isolated copies of a document value. The copy must share
// no mutable structure with its input.
type Codec[T any] interface {
	Copy(doc T) T
}

// CodecFunc adapts a plain function to a Codec.
type CodecFunc[T any] func(T) T

func (f CodecFunc[T]) Copy(doc T) T { return f(doc) }

// RoadmapCodec copies roadmaps with an explicit walk over topics and
// subtopics.
type RoadmapCodec struct{}

func (RoadmapCodec) Copy(doc roadmap.Roadmap) roadmap.Roadmap { return doc.Clone() }

// JSONCodec copies any JSON-serialisable value with an encode/decode round
// trip. Values that cannot round trip are a caller bug and cause a panic.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Copy(doc T) T {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("history: document is not copyable: %v", err))
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("history: document does not round trip: %v", err))
	}
	return out
}
