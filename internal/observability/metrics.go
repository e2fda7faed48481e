package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters, including the deflection and
// classification tallies that feed the district's deflection-rate report.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	classifications map[string]int64
	deflections     int64
	ticketsCreated  int64
	slaEscalations  int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		classifications: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordClassification tallies a classified intake by category.
func (m *Metrics) RecordClassification(category string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications[category]++
}

// RecordDeflection tallies a conversation resolved by a knowledge article
// before any ticket was created.
func (m *Metrics) RecordDeflection() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deflections++
}

// RecordTicketCreated tallies a finalized intake.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsCreated++
}

// RecordSLAEscalation tallies a breach escalation.
func (m *Metrics) RecordSLAEscalation() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slaEscalations++
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests        map[string]int64 `json:"requests"`
	Errors          map[string]int64 `json:"errors"`
	Classifications map[string]int64 `json:"classifications"`
	Deflections     int64            `json:"deflections"`
	TicketsCreated  int64            `json:"tickets_created"`
	SLAEscalations  int64            `json:"sla_escalations"`
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:        make(map[string]int64, len(m.requestCount)),
		Errors:          make(map[string]int64, len(m.errorCount)),
		Classifications: make(map[string]int64, len(m.classifications)),
		Deflections:     m.deflections,
		TicketsCreated:  m.ticketsCreated,
		SLAEscalations:  m.slaEscalations,
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.classifications {
		snap.Classifications[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
