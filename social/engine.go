package social

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/socialmux/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine owns every relationship read and write. It is stateless: all state
// lives in the backing store, so a single Engine value is safe to share across
// requests.
type Engine struct {
	DB *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// lockPairEdge reads the single edge for the unordered pair under a row lock.
// Must be called inside a transaction. Returns nil without error when the
// pair has no edge.
func lockPairEdge(tx *gorm.DB, a string, b string) (*model.FriendEdge, error) {
	var edge model.FriendEdge
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pair_key = ?", model.PairKeyOf(a, b)).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// lockEdgeById reads an edge by primary key under a row lock. Must be called
// inside a transaction.
func lockEdgeById(tx *gorm.DB, id string, out *model.FriendEdge) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("friend request not found")
	}
	return err
}

// insertEvent appends a transactional outbox row. Must run inside the same
// transaction as the edge write so an event exists iff the mutation committed.
func insertEvent(tx *gorm.DB, kind model.SocialEventKind, actorId string, subjectId string) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"actor":      actorId,
		"subject":    subjectId,
	})
	event := model.SocialEvent{
		Id:        uuid.New().String(),
		Kind:      kind,
		ActorId:   actorId,
		SubjectId: subjectId,
		Payload:   datatypes.JSON(payload),
	}
	return tx.Create(&event).Error
}

// withTransaction runs fn in a storage transaction, passing through typed
// engine errors and wrapping everything else as a storage failure.
func (e *Engine) withTransaction(ctx context.Context, message string, fn func(tx *gorm.DB) error) error {
	err := e.DB.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return NewStorageError(err, message)
}
