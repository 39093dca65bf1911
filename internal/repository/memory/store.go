package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
)

// Store keeps punches and breaks in process memory. It backs the gateway in
// development mode and in end-to-end tests.
type Store struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	punches map[string]attendance.Punch
	breaks  map[string]attendance.Break
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		punches: make(map[string]attendance.Punch),
		breaks:  make(map[string]attendance.Break),
		now:     time.Now,
	}
}

// Transact serialises units of work. There is no rollback: repositories only
// write after every rule has been checked.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *Store) Punches() attendance.PunchRepository {
	return &punchRepository{s: s}
}

func (s *Store) Breaks() attendance.BreakRepository {
	return &breakRepository{s: s}
}

type punchRepository struct {
	s *Store
}

// GetByEmployeeAndDate implements attendance.PunchRepository.
func (r *punchRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Punch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day := date.Format("2006-01-02")
	for _, p := range r.s.punches {
		if p.EmployeeID == employeeID && p.CompanyID == companyID && p.Date.Format("2006-01-02") == day {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// Create implements attendance.PunchRepository.
func (r *punchRepository) Create(ctx context.Context, punch attendance.Punch) (attendance.Punch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.punches[punch.ID]; exists {
		return attendance.Punch{}, fmt.Errorf("punch %s already exists", punch.ID)
	}
	now := r.s.now()
	punch.CreatedAt, punch.UpdatedAt = now, now
	r.s.punches[punch.ID] = punch
	return punch, nil
}

// CloseSession implements attendance.PunchRepository.
func (r *punchRepository) CloseSession(ctx context.Context, punch attendance.Punch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.punches[punch.ID]
	if !ok {
		return fmt.Errorf("punch %s not found", punch.ID)
	}
	stored.TimeOut = punch.TimeOut
	stored.OutLat = punch.OutLat
	stored.OutLon = punch.OutLon
	stored.OutLocation = punch.OutLocation
	stored.UpdatedAt = r.s.now()
	r.s.punches[punch.ID] = stored
	return nil
}

type breakRepository struct {
	s *Store
}

// GetLatestByPunch implements attendance.BreakRepository.
func (r *breakRepository) GetLatestByPunch(ctx context.Context, punchID string) (*attendance.Break, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found []attendance.Break
	for _, b := range r.s.breaks {
		if b.PunchID == punchID {
			found = append(found, b)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].BreakStart > found[j].BreakStart
	})
	return &found[0], nil
}

// Create implements attendance.BreakRepository.
func (r *breakRepository) Create(ctx context.Context, brk attendance.Break) (attendance.Break, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.breaks[brk.ID]; exists {
		return attendance.Break{}, fmt.Errorf("break %s already exists", brk.ID)
	}
	now := r.s.now()
	brk.CreatedAt, brk.UpdatedAt = now, now
	r.s.breaks[brk.ID] = brk
	return brk, nil
}

// End implements attendance.BreakRepository.
func (r *breakRepository) End(ctx context.Context, brk attendance.Break) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.breaks[brk.ID]
	if !ok {
		return fmt.Errorf("break %s not found", brk.ID)
	}
	stored.BreakEnd = brk.BreakEnd
	stored.UpdatedAt = r.s.now()
	r.s.breaks[brk.ID] = stored
	return nil
}
