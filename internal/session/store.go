// Package session persists the cart identity across restarts.
package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"storefront/internal/model"
)

// Key is the fixed key the cart session blob is stored under.
const Key = "cart_session"

// KV is the persistent key-value collaborator. Get reports ok=false on a miss.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store reads and writes the serialized CartSession.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{kv: kv, logger: logger}
}

// Restore returns the persisted session, or nil when there is none usable.
// Read and parse failures are logged and treated as a miss.
func (s *Store) Restore(ctx context.Context) *model.CartSession {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		s.logger.Warn("session restore failed", slog.Any("error", err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var sess model.CartSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Warn("session blob unreadable, discarding", slog.Any("error", err))
		return nil
	}
	if !sess.Valid() {
		s.logger.Warn("session blob has no cart id, discarding")
		return nil
	}
	return &sess
}

// Persist writes the session. One attempt; the failure is logged and returned.
func (s *Store) Persist(ctx context.Context, sess model.CartSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return model.NewStoreError("encode", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		s.logger.Warn("session persist failed",
			slog.String("cart_id", sess.ID),
			slog.Any("error", err),
		)
		return model.NewStoreError("write", err)
	}
	s.logger.Debug("session persisted", slog.String("cart_id", sess.ID))
	return nil
}
