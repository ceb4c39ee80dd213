package ecs

// handleStore tracks slot generations and free slots.
type handleStore struct {
	nextID slotID
	gen    []generation
	free   []slotID
}

func (s *handleStore) create() Handle {
	if s == nil {
		return 0
	}
	var id slotID
	if len(s.free) > 0 {
		id = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	} else {
		s.nextID++
		id = s.nextID
		s.gen = append(s.gen, 0)
	}
	return makeHandle(id, s.gen[id-1])
}

// destroy bumps the slot generation so every outstanding copy of h goes stale.
func (s *handleStore) destroy(h Handle) bool {
	if !s.isAlive(h) {
		return false
	}
	s.gen[h.id()-1]++
	s.free = append(s.free, h.id())
	return true
}

func (s *handleStore) isAlive(h Handle) bool {
	if s == nil || !h.Valid() || int(h.id()) > len(s.gen) {
		return false
	}
	return s.gen[h.id()-1] == h.generation()
}
