package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// StoryEventType names what happened to a set of stories
type StoryEventType string

const (
	StoryCreated StoryEventType = "story_created"
	StoryUpdated StoryEventType = "story_updated"
	StoryDeleted StoryEventType = "story_deleted"
)

// StoryEvent is published after a mutation has been committed
type StoryEvent struct {
	Type     StoryEventType `json:"type"`
	StoryIDs []uuid.UUID    `json:"story_ids"`
	At       time.Time      `json:"at"`
}

// Notifier receives committed story events. Publish must not block.
type Notifier interface {
	Publish(event StoryEvent)
}

type nopNotifier struct{}

func (nopNotifier) Publish(StoryEvent) {}

// changeSet records the stories touched by one transaction
type changeSet struct {
	created map[uuid.UUID]bool
	touched map[uuid.UUID]bool
	deleted map[uuid.UUID]bool
}

func newChangeSet() *changeSet {
	return &changeSet{
		created: make(map[uuid.UUID]bool),
		touched: make(map[uuid.UUID]bool),
		deleted: make(map[uuid.UUID]bool),
	}
}

func (cs *changeSet) create(id uuid.UUID) {
	cs.created[id] = true
	cs.touched[id] = true
}

func (cs *changeSet) touch(ids ...uuid.UUID) {
	for _, id := range ids {
		cs.touched[id] = true
	}
}

func (cs *changeSet) remove(id uuid.UUID) {
	cs.deleted[id] = true
	delete(cs.touched, id)
	delete(cs.created, id)
}

// forget drops a story that must not be recomputed
func (cs *changeSet) forget(id uuid.UUID) {
	delete(cs.touched, id)
}

// pending returns the touched stories in a stable order so that concurrent
// transactions acquire row locks in the same sequence.
func (cs *changeSet) pending() []uuid.UUID {
	return sortedIDs(cs.touched)
}

func (cs *changeSet) events(now time.Time) []StoryEvent {
	var created, updated []uuid.UUID
	for id := range cs.touched {
		if cs.created[id] {
			created = append(created, id)
		} else {
			updated = append(updated, id)
		}
	}

	var events []StoryEvent
	if len(created) > 0 {
		events = append(events, StoryEvent{Type: StoryCreated, StoryIDs: sortIDs(created), At: now})
	}
	if len(updated) > 0 {
		events = append(events, StoryEvent{Type: StoryUpdated, StoryIDs: sortIDs(updated), At: now})
	}
	if len(cs.deleted) > 0 {
		events = append(events, StoryEvent{Type: StoryDeleted, StoryIDs: sortedIDs(cs.deleted), At: now})
	}
	return events
}

func sortedIDs(set map[uuid.UUID]bool) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return sortIDs(ids)
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// uniqueIDs drops repeated ids, keeping first occurrences in order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
