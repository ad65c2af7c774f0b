package fifoset

// Set 固定容量的 FIFO 去重集合
// 超出容量时淘汰最早加入的 key，非并发安全，由持有者独占使用
type Set struct {
	capacity int
	order    []string
	seen     map[string]struct{}
}

func New(capacity int) *Set {
	if capacity <= 0 {
		capacity = 1
	}
	return &Set{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		seen:     make(map[string]struct{}, capacity),
	}
}

// Add 加入 key，若 key 已存在返回 false
func (s *Set) Add(key string) bool {
	if _, ok := s.seen[key]; ok {
		return false
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	s.order = append(s.order, key)
	s.seen[key] = struct{}{}
	return true
}

func (s *Set) Contains(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *Set) Len() int {
	return len(s.order)
}
