// Package notify carries user-visible cart notices to whoever is listening:
// the log, a NATS subject, and the HTTP request that triggered them.
package notify

import (
	"context"
	"sync"
	"time"

	natsadapter "github.com/Abdurahmanit/GroupProject/cart-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/logger"
	"github.com/google/uuid"
)

type Kind string

const (
	KindOutOfStock   Kind = "out_of_stock"
	KindAddFailed    Kind = "add_failed"
	KindRemoveFailed Kind = "remove_failed"
	KindUpdateFailed Kind = "update_failed"
)

var messages = map[Kind]string{
	KindOutOfStock:   "Requested quantity is out of stock",
	KindAddFailed:    "Failed to add product",
	KindRemoveFailed: "Failed to remove product",
	KindUpdateFailed: "Failed to update product amount",
}

type Notice struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ProductID int       `json:"product_id"`
	At        time.Time `json:"at"`
}

func NewNotice(kind Kind, productID int) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   messages[kind],
		ProductID: productID,
		At:        time.Now().UTC(),
	}
}

// Notifier is fire-and-forget; implementations must not block the caller on failure.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

type logNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) Notifier {
	return &logNotifier{log: log.With("component", "notify")}
}

func (l *logNotifier) Notify(_ context.Context, n Notice) {
	l.log.With("notice_id", n.ID, "kind", string(n.Kind), "product_id", n.ProductID).Warn(n.Message)
}

type natsNotifier struct {
	publisher natsadapter.MessagePublisher
	subject   string
	log       logger.Logger
}

func NewNATSNotifier(publisher natsadapter.MessagePublisher, subject string, log logger.Logger) Notifier {
	return &natsNotifier{publisher: publisher, subject: subject, log: log}
}

func (n *natsNotifier) Notify(ctx context.Context, notice Notice) {
	if err := n.publisher.Publish(ctx, n.subject, notice); err != nil {
		n.log.Errorf("Failed to publish notice %s to %s: %v", notice.ID, n.subject, err)
	}
}

type fanout struct {
	sinks []Notifier
}

// Fanout delivers every notice to each sink and to the Recorder bound to ctx, if any.
func Fanout(sinks ...Notifier) Notifier {
	return &fanout{sinks: sinks}
}

func (f *fanout) Notify(ctx context.Context, n Notice) {
	if r := recorderFrom(ctx); r != nil {
		r.add(n)
	}
	for _, s := range f.sinks {
		s.Notify(ctx, n)
	}
}

type recorderKey struct{}

// Recorder collects the notices produced while serving one request.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, r), r
}

func recorderFrom(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

func (r *Recorder) add(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy; never nil.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
