// Package memory holds in-process repositories with the same uniqueness and
// atomicity rules as the PostgreSQL ones. They back tests and
// STORAGE_DRIVER=memory.
package memory

import (
	"fmt"
	"sync"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
)

// Store is the shared state behind every memory repository. One mutex
// guards all tables so cross-table checks (tenant code lock) stay consistent.
type Store struct {
	mu sync.RWMutex

	tenants     map[string]tenant.Tenant
	persons     map[string]person.Person
	counters    map[identifier.SequenceKey]int64
	records     map[string]attendance.Record
	recordKeys  map[string]string
	corrections map[string][]attendance.Correction
	policies    map[string]attendance.Policy
	recordSeq   int64
}

func NewStore() *Store {
	return &Store{
		tenants:     make(map[string]tenant.Tenant),
		persons:     make(map[string]person.Person),
		counters:    make(map[identifier.SequenceKey]int64),
		records:     make(map[string]attendance.Record),
		recordKeys:  make(map[string]string),
		corrections: make(map[string][]attendance.Correction),
		policies:    make(map[string]attendance.Policy),
	}
}

func recordKey(k attendance.Key) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.TenantID, k.PersonID, k.Date.Format(attendance.DateLayout), k.Context, k.ContextRefID)
}

func policyKey(tenantID string, c attendance.Context) string {
	return tenantID + "|" + string(c)
}

func cloneRecord(r attendance.Record) attendance.Record {
	if r.CheckIn != nil {
		ev := *r.CheckIn
		r.CheckIn = &ev
	}
	if r.CheckOut != nil {
		ev := *r.CheckOut
		r.CheckOut = &ev
	}
	return r
}
