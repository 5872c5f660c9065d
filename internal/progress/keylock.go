package progress

import (
	"hash/maphash"
	"sync"

	"github.com/google/uuid"
)

const lockStripes = 256

// keyLock serializes work per (user, video) key. Keys hash onto a fixed set
// of mutexes so unrelated keys rarely contend and memory stays bounded.
type keyLock struct {
	seed    maphash.Seed
	stripes [lockStripes]sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{seed: maphash.MakeSeed()}
}

// lock acquires the stripe for the key and returns its unlock func.
func (l *keyLock) lock(userID, videoID uuid.UUID) func() {
	var h maphash.Hash
	h.SetSeed(l.seed)
	_, _ = h.Write(userID[:])
	_, _ = h.Write(videoID[:])
	m := &l.stripes[h.Sum64()%lockStripes]
	m.Lock()
	return m.Unlock
}
