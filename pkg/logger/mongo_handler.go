package logger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// MongoHandler is an slog.Handler that batches records into a MongoDB
// collection from a background goroutine. Records are dropped, never
// blocked on, when the queue is full.
type MongoHandler struct {
	col   *mongo.Collection
	level slog.Level
	queue chan LogDocument
	done  chan struct{}
	wg    *sync.WaitGroup
	once  *sync.Once
	attrs []slog.Attr
}

// NewMongoHandler starts a sink writing into col. It shares the caller's
// client; Close flushes but does not disconnect.
func NewMongoHandler(ctx context.Context, col *mongo.Collection, level slog.Level) *MongoHandler {
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "time", Value: -1}},
		Options: options.Index().SetName("time_desc"),
	})

	h := &MongoHandler{
		col:   col,
		level: level,
		queue: make(chan LogDocument, mongoQueueSize),
		done:  make(chan struct{}),
		wg:    &sync.WaitGroup{},
		once:  &sync.Once{},
	}

	h.wg.Add(1)
	go h.drainLoop()
	return h
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	collect := func(a slog.Attr) bool {
		if a.Key == "request_id" {
			doc.RequestID = a.Value.String()
		} else {
			doc.Attrs[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	select {
	case h.queue <- doc:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op: documents keep a flat attrs map.
func (h *MongoHandler) WithGroup(_ string) slog.Handler { return h }

func (h *MongoHandler) drainLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = h.col.InsertMany(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-h.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-h.done:
			for len(h.queue) > 0 {
				batch = append(batch, <-h.queue)
			}
			flush()
			return
		}
	}
}

// Close flushes pending records. Safe to call multiple times.
func (h *MongoHandler) Close() {
	h.once.Do(func() { close(h.done) })
	h.wg.Wait()
}

// MultiHandler fans out to multiple slog.Handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler that sends each record to all hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
