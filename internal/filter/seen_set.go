package filter

// seenSet is a bounded set of transaction hashes with FIFO eviction. Every
// hash a filter encounters lands here, including sub-threshold ones, so a
// transaction is never reprocessed while its hash is still resident.
type seenSet struct {
	members map[string]struct{}
	order   []string
	cap     int
}

func newSeenSet(capacity int) *seenSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &seenSet{
		members: make(map[string]struct{}, capacity),
		cap:     capacity,
	}
}

func (s *seenSet) contains(hash string) bool {
	_, ok := s.members[hash]
	return ok
}

func (s *seenSet) add(hash string) {
	if s.contains(hash) {
		return
	}
	if len(s.order) >= s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
	s.members[hash] = struct{}{}
	s.order = append(s.order, hash)
}

func (s *seenSet) len() int { return len(s.order) }
