package dht

import (
	"encoding/binary"
	"io"
	"time"
)

// pingStore maps outstanding ping ids to the time they were issued.
// It never contains the id 0, which is reserved as invalid.
type pingStore struct {
	ids map[uint64]time.Time
}

func (s *pingStore) init() {
	s.ids = make(map[uint64]time.Time)
}

func randomUint64(r io.Reader) uint64 {
	var bs [8]byte
	if _, err := io.ReadFull(r, bs[:]); err != nil {
		panic("failed to generate ping id")
	}
	return binary.BigEndian.Uint64(bs[:])
}

func (s *pingStore) issue(now time.Time, r io.Reader) uint64 {
	for {
		id := randomUint64(r)
		if id == 0 {
			continue
		}
		if _, isIn := s.ids[id]; isIn {
			continue
		}
		s.ids[id] = now
		return id
	}
}

// validate consumes id before checking its age, so a late answer fails exactly like a forged one.
func (s *pingStore) validate(id uint64, now time.Time, timeout time.Duration) bool {
	if id == 0 {
		return false
	}
	sent, isIn := s.ids[id]
	if !isIn {
		return false
	}
	delete(s.ids, id)
	return now.Sub(sent) <= timeout
}

func (s *pingStore) expire(now time.Time, timeout time.Duration) {
	for id, sent := range s.ids {
		if now.Sub(sent) > timeout {
			delete(s.ids, id)
		}
	}
}

func (s *pingStore) has(id uint64) bool {
	_, isIn := s.ids[id]
	return isIn
}

func (s *pingStore) len() int {
	return len(s.ids)
}
