package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alimasry/roadmap-planner/roadmap"
)

// FirestoreStore is a Firestore-backed implementation of RoadmapStore.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a new FirestoreStore using the given Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: "roadmaps",
	}
}

type fsSubtopic struct {
	ID   string `firestore:"id"`
	Name string `firestore:"name"`
}

type fsTopic struct {
	ID        string       `firestore:"id"`
	Name      string       `firestore:"name"`
	Subtopics []fsSubtopic `firestore:"subtopics"`
}

type fsRoadmap struct {
	Topics    []fsTopic `firestore:"topics"`
	Version   int64     `firestore:"version"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeTopics(doc roadmap.Roadmap) []fsTopic {
	topics := make([]fsTopic, len(doc.Topics))
	for i, t := range doc.Topics {
		subs := make([]fsSubtopic, len(t.Subtopics))
		for j, s := range t.Subtopics {
			subs[j] = fsSubtopic{ID: s.ID, Name: s.Name}
		}
		topics[i] = fsTopic{ID: t.ID, Name: t.Name, Subtopics: subs}
	}
	return topics
}

func decodeTopics(topics []fsTopic) roadmap.Roadmap {
	doc := roadmap.Roadmap{Topics: make([]roadmap.Topic, len(topics))}
	for i, t := range topics {
		subs := make([]roadmap.Subtopic, len(t.Subtopics))
		for j, s := range t.Subtopics {
			subs[j] = roadmap.Subtopic{ID: s.ID, Name: s.Name}
		}
		doc.Topics[i] = roadmap.Topic{ID: t.ID, Name: t.Name, Subtopics: subs}
	}
	return doc
}

func (s *FirestoreStore) docRef(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreStore) Create(ctx context.Context, id string, doc roadmap.Roadmap) error {
	now := time.Now()
	_, err := s.docRef(id).Create(ctx, fsRoadmap{
		Topics:    encodeTopics(doc),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("roadmap %q: %w", id, ErrExists)
	}
	return err
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Record, error) {
	snap, err := s.docRef(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return snapshotToRecord(snap)
}

func snapshotToRecord(snap *firestore.DocumentSnapshot) (*Record, error) {
	var data fsRoadmap
	if err := snap.DataTo(&data); err != nil {
		return nil, fmt.Errorf("decode roadmap %s: %w", snap.Ref.ID, err)
	}
	return &Record{
		ID:        snap.Ref.ID,
		Roadmap:   decodeTopics(data.Topics),
		Version:   int(data.Version),
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}, nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]Record, error) {
	iter := s.client.Collection(s.collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []Record
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := snapshotToRecord(snap)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, doc roadmap.Roadmap, version int) error {
	_, err := s.docRef(id).Update(ctx, []firestore.Update{
		{Path: "topics", Value: encodeTopics(doc)},
		{Path: "version", Value: version},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("roadmap %q: %w", id, ErrNotFound)
	}
	return err
}
