package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/db"
	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/store"
	"github.com/vbonduro/nutriscan/internal/upload"
	"github.com/vbonduro/nutriscan/internal/vision"
)

// stubUploader is a minimal upload.Uploader for tests.
type stubUploader struct {
	img *upload.Image
	err error
}

func (s *stubUploader) Upload(_ context.Context, _ upload.Photo) (*upload.Image, error) {
	return s.img, s.err
}

// stubDetector is a minimal vision.LabelDetector that records what it saw.
type stubDetector struct {
	labels []domain.Label
	err    error
	seen   []vision.Image
}

func (s *stubDetector) DetectLabels(_ context.Context, img vision.Image) ([]domain.Label, error) {
	s.seen = append(s.seen, img)
	return s.labels, s.err
}

// stubLookup is a minimal nutritionLookup that records queried labels.
type stubLookup struct {
	food    *nutrition.Food
	err     error
	queries []string
}

func (s *stubLookup) Lookup(_ context.Context, label string) (*nutrition.Food, error) {
	s.queries = append(s.queries, label)
	return s.food, s.err
}

// stubCompleter is a minimal chat.Completer that records each history it
// was asked to complete.
type stubCompleter struct {
	reply string
	err   error
	calls [][]chat.Turn
}

func (s *stubCompleter) Complete(_ context.Context, history []chat.Turn) (string, error) {
	s.calls = append(s.calls, history)
	return s.reply, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStores(t *testing.T) (*store.HistoryStore, *store.ChatStore) {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return store.NewHistoryStore(d), store.NewChatStore(d)
}

func amount(v float64) *float64 { return &v }
