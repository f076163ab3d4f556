package history

import "github.com/shubham-shewale/market-feed/pkg/models"

// DefaultLimit is the number of samples kept per symbol when none is configured.
const DefaultLimit = 60

// Store keeps a bounded, oldest-first series of samples per symbol.
// Like the ledger it is written only from the tick loop and does no locking.
type Store struct {
	limit  int
	series map[string]*ring
}

func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		limit:  limit,
		series: make(map[string]*ring),
	}
}

func (s *Store) Limit() int { return s.limit }

// Append pushes a sample, evicting the oldest once the series is full.
func (s *Store) Append(symbol string, sample models.Sample) {
	r, ok := s.series[symbol]
	if !ok {
		r = newRing(s.limit)
		s.series[symbol] = r
	}
	r.push(sample)
}

// Window returns the last n samples oldest-first, or fewer if not enough are
// retained. n <= 0 returns the whole retained window.
func (s *Store) Window(symbol string, n int) []models.Sample {
	r, ok := s.series[symbol]
	if !ok {
		return []models.Sample{}
	}
	return r.last(n)
}

func (s *Store) Len(symbol string) int {
	if r, ok := s.series[symbol]; ok {
		return r.n
	}
	return 0
}

func (s *Store) Clear(symbol string) {
	delete(s.series, symbol)
}

func (s *Store) ClearAll() {
	s.series = make(map[string]*ring)
}

// ring is a fixed-capacity FIFO. head is the index of the oldest sample.
type ring struct {
	buf  []models.Sample
	head int
	n    int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.Sample, capacity)}
}

func (r *ring) push(s models.Sample) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = s
		r.n++
		return
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) last(n int) []models.Sample {
	if n <= 0 || n > r.n {
		n = r.n
	}
	out := make([]models.Sample, n)
	start := r.head + r.n - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
