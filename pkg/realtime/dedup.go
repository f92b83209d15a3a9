package realtime

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// deduper suppresses redelivery of envelopes already observed, bounded
// by a fixed-capacity LRU window so old ids age out one at a time
// instead of the whole set resetting at once.
//
// Only NEW_MESSAGE envelopes carry a usable dedup key (data.id); every
// other type is always delivered and can be observed twice after a
// reconnect. Known limitation of the server contract, kept on purpose.
type deduper struct {
	seen *lru.Cache[string, struct{}]
}

func newDeduper(window int) *deduper {
	// lru.New only errors on a non-positive size, which withDefaults
	// already rules out.
	cache, err := lru.New[string, struct{}](window)
	if err != nil {
		panic(err)
	}
	return &deduper{seen: cache}
}

// shouldDeliver reports whether the envelope has not been observed
// before, recording it as observed when a dedup key exists.
func (d *deduper) shouldDeliver(env events.Envelope) bool {
	if env.Type != events.TypeNewMessage {
		return true
	}
	msg, err := env.ChatMessageData()
	if err != nil || msg.ID == "" {
		return true
	}
	if _, dup := d.seen.Get(msg.ID); dup {
		return false
	}
	d.seen.Add(msg.ID, struct{}{})
	return true
}
