package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"regatta-resume/models"
)

type resultKey struct {
	sailor, regatta int64
	division        string
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	sailors  map[string]*models.Sailor
	regattas map[string]*models.Regatta
	results  map[resultKey]*models.Result
	order    []resultKey
	runs     map[string]*models.Run
	runOrder []string
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sailors:  make(map[string]*models.Sailor),
		regattas: make(map[string]*models.Regatta),
		results:  make(map[resultKey]*models.Result),
		runs:     make(map[string]*models.Run),
		now:      time.Now,
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) GetOrCreateSailor(_ context.Context, name string) (*models.Sailor, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := NormalizeName(name)
	if s, ok := m.sailors[key]; ok {
		cp := *s
		return &cp, false, nil
	}
	s := &models.Sailor{ID: m.id(), Name: strings.TrimSpace(name), NameNormalized: key, CreatedAt: m.now()}
	m.sailors[key] = s
	cp := *s
	return &cp, true, nil
}

func (m *MemoryStore) GetOrCreateRegatta(_ context.Context, r models.Regatta) (*models.Regatta, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.regattas[r.ExternalID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	r.ID = m.id()
	m.regattas[r.ExternalID] = &r
	cp := r
	return &cp, true, nil
}

func (m *MemoryStore) InsertResult(_ context.Context, r models.Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := resultKey{r.SailorID, r.RegattaID, r.Division}
	if _, ok := m.results[key]; ok {
		return false, nil
	}
	r.ID = m.id()
	m.results[key] = &r
	m.order = append(m.order, key)
	return true, nil
}

func (m *MemoryStore) SailorByName(_ context.Context, name string) (*models.Sailor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sailors[NormalizeName(name)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ResultsForSailor(_ context.Context, sailorID int64) ([]models.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[int64]*models.Regatta, len(m.regattas))
	for _, r := range m.regattas {
		byID[r.ID] = r
	}

	var out []models.ResultRecord
	for _, key := range m.order {
		res := m.results[key]
		if res.SailorID != sailorID {
			continue
		}
		rec := models.ResultRecord{Placement: res.Placement, BoatType: res.BoatType, Role: res.Role}
		if reg, ok := byID[res.RegattaID]; ok {
			rec.RegattaName = reg.Name
			rec.StartDate = reg.StartDate
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// ResultCount is the number of stored results.
func (m *MemoryStore) ResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func (m *MemoryStore) CreateRun(_ context.Context) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := &models.Run{ID: uuid.NewString(), Status: models.RunRunning, StartedAt: m.now()}
	m.runs[run.ID] = run
	m.runOrder = append(m.runOrder, run.ID)
	cp := *run
	return &cp, nil
}

// UpdateRun stores status, stats and error. The cancel flag is owned by
// RequestCancel and is never cleared here.
func (m *MemoryStore) UpdateRun(_ context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.runs[run.ID]
	if !ok {
		return ErrNotFound
	}
	cancel := existing.CancelRequested
	*existing = *run
	existing.CancelRequested = cancel || run.CancelRequested
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *MemoryStore) LatestRun(_ context.Context) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.runOrder) == 0 {
		return nil, ErrNotFound
	}
	cp := *m.runs[m.runOrder[len(m.runOrder)-1]]
	return &cp, nil
}

func (m *MemoryStore) RequestCancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return ErrNotFound
	}
	run.CancelRequested = true
	return nil
}

func (m *MemoryStore) Close() error { return nil }
