package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Storage adds JSON encoding and fallback-on-failure reads on top of a KV
type Storage struct {
	kv     KV
	logger logrus.FieldLogger
}

// NewStorage wraps kv; a nil logger discards log output
func NewStorage(kv KV, logger logrus.FieldLogger) *Storage {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Storage{kv: kv, logger: logger}
}

// Get decodes the value stored at key. A missing key, a storage error or
// corrupt JSON all yield fallback; failures are logged, never returned.
func Get[T any](ctx context.Context, s *Storage, key string, fallback T) T {
	raw, ok, err := s.kv.Load(ctx, key)
	if err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("error reading from storage")
		return fallback
	}
	if !ok || len(raw) == 0 {
		return fallback
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("corrupt value in storage")
		return fallback
	}
	return value
}

// Set encodes value as JSON and stores it at key
func Set[T any](ctx context.Context, s *Storage, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Save(ctx, key, raw); err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("error writing to storage")
		return err
	}
	return nil
}

// Remove deletes key
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("error removing from storage")
		return err
	}
	return nil
}
