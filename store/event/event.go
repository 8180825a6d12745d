package event

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type eventStore struct {
	db *db.DB
}

// New new event store
func New(db *db.DB) core.IEventStore {
	return &eventStore{
		db: db,
	}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Event{})
		if err := tx.AutoMigrate(core.Event{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Create journal an event, at most once per trace id
func (s *eventStore) Create(ctx context.Context, event *core.Event) error {
	var existing core.Event
	err := s.db.View().Where("trace_id = ?", event.TraceID).First(&existing).Error
	if gorm.IsRecordNotFoundError(err) {
		return s.db.Update().Create(event).Error
	}

	return err
}

func (s *eventStore) List(ctx context.Context, limit int) ([]*core.Event, error) {
	var events []*core.Event
	if err := s.db.View().Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (s *eventStore) ListByType(ctx context.Context, typ core.EventType, limit int) ([]*core.Event, error) {
	var events []*core.Event
	if err := s.db.View().Where("type=?", typ).Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
