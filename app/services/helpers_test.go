package services_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type mockHost struct {
	mock.Mock
}

func (m *mockHost) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, folder, filename, r)
	return args.String(0), args.Error(1)
}

func (m *mockHost) Destroy(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(_ context.Context, name, _ string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var _ event.Publisher = (*recorder)(nil)
