package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

// Store is the Postgres + optional-Kafka implementation of
// matchtxn.Store. One *gorm.DB backs the single writer the advisory lock
// from AcquireAdvisoryLock protects; CommitBatch upserts the changed rows and appends
// log rows in a single transaction, then best-effort fans the log entries
// out to Kafka.
type Store struct {
	db     *gorm.DB
	writer *kafka.Writer // nil disables the event-log fan-out
	log    logrus.FieldLogger
}

// Open connects to Postgres via gorm.io/driver/postgres and wires an
// optional Kafka writer. Schema is owned entirely by the SQL files under
// migrations/, applied out-of-band via the "migrate" subcommand — Open
// deliberately never calls AutoMigrate, so there is exactly one source of
// truth for the states/logs table shape.
func Open(dsn string, brokers []string, topic string, log logrus.FieldLogger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}

	var writer *kafka.Writer
	if len(brokers) > 0 {
		writer = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return &Store{db: db, writer: writer, log: log}, nil
}

// Ping checks Postgres connectivity, for the /ready handler.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection and, if enabled, the Kafka
// writer.
func (s *Store) Close() error {
	if s.writer != nil {
		_ = s.writer.Close()
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadAll reads every persisted UserState, implementing matchtxn.Store.
func (s *Store) LoadAll(ctx context.Context) (map[matchstate.Uid]matchstate.UserState, error) {
	var rows []stateRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load all: %w", err)
	}

	states := make(map[matchstate.Uid]matchstate.UserState, len(rows))
	for _, r := range rows {
		s := fromRow(r)
		states[s.Uid] = s
	}
	return states, nil
}

// CommitBatch upserts batch and appends logs inside one Postgres
// transaction, implementing matchtxn.Store. A failure here is exactly the
// FatalPersistence disposition from spec.md §7 — the caller marks the
// engine failed and refuses further transactions.
func (s *Store) CommitBatch(ctx context.Context, batch []matchstate.UserState, logs []matchtxn.LogEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range batch {
			row := toRow(st)
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("store: upsert uid %d: %w", st.Uid, err)
			}
		}
		for _, entry := range logs {
			data, err := json.Marshal(entry.Fields)
			if err != nil {
				return fmt.Errorf("store: marshal log fields: %w", err)
			}
			row := logRow{Ts: int64(entry.Ts), Kind: entry.Kind, Fields: string(data)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("store: insert log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, logs)
	return nil
}

// publish is best-effort: a Kafka write failure does not fail the commit,
// since the durable record of truth is already in Postgres.
func (s *Store) publish(ctx context.Context, logs []matchtxn.LogEntry) {
	if s.writer == nil || len(logs) == 0 {
		return
	}
	msgs := make([]kafka.Message, 0, len(logs))
	for _, entry := range logs {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		msgs = append(msgs, kafka.Message{Value: data})
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil && s.log != nil {
		s.log.WithError(err).Warn("store: kafka publish failed, event log entries dropped")
	}
}
