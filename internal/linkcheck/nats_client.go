package linkcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// BrokenLinkEvent is the wire shape published for each unresolved link.
type BrokenLinkEvent struct {
	Target     string    `json:"target"`
	Source     string    `json:"source"`
	Origin     string    `json:"origin,omitempty"` // markdown file, when attributable
	DetectedAt time.Time `json:"detected_at"`
}

// NATSPublisher publishes broken-link events over NATS JetStream. A KV
// bucket dedupes targets already reported so repeated builds do not spam
// the subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to the configured NATS server and ensures the
// dedupe KV bucket exists.
func NewNATSPublisher(cfg *config.Config) (*NATSPublisher, error) {
	lc := cfg.LinkCheck
	if lc.NATSURL == "" {
		return nil, fmt.Errorf("linkcheck nats_url is not configured")
	}

	conn, err := nats.Connect(lc.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: conn, js: js, subject: lc.Subject, policy: retry.DefaultPolicy()}
	if err := p.initKVBucket(lc.Bucket); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize KV bucket: %w", err)
	}

	slog.Info("NATS publisher initialized for link checking",
		logfields.URL(lc.NATSURL),
		slog.String("subject", lc.Subject),
		slog.String("kv_bucket", lc.Bucket))
	return p, nil
}

func (p *NATSPublisher) initKVBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := p.js.KeyValue(ctx, bucket)
	if err == nil {
		p.kv = kv
		return nil
	}

	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    24 * time.Hour,
	})
	if err != nil {
		return err
	}
	p.kv = kv
	return nil
}

// PublishBrokenLink publishes one event, skipping targets seen within the
// KV TTL window.
func (p *NATSPublisher) PublishBrokenLink(ctx context.Context, w Warning) error {
	key := sanitizeKey(w.Source + w.Target)
	if _, err := p.kv.Get(ctx, key); err == nil {
		return nil // already reported recently
	}

	payload, err := json.Marshal(BrokenLinkEvent{
		Target:     w.Target,
		Source:     w.Source,
		Origin:     w.Origin,
		DetectedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal broken link event: %w", err)
	}

	// JetStream publishes fail transiently during leader elections.
	err = p.policy.Do(ctx, func() error {
		_, pubErr := p.js.Publish(ctx, p.subject, payload)
		return pubErr
	})
	if err != nil {
		return fmt.Errorf("publish broken link event: %w", err)
	}
	if _, err := p.kv.PutString(ctx, key, "reported"); err != nil {
		slog.Debug("Failed to record broken link in KV cache", logfields.Error(err))
	}
	return nil
}

// Close shuts the NATS connection down.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// sanitizeKey maps arbitrary paths onto the KV key character set.
func sanitizeKey(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '.')
		}
	}
	return string(out)
}
