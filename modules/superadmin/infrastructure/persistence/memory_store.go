package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orderly-pos/orderly/modules/superadmin/domain"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities"
	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	"github.com/orderly-pos/orderly/pkg/repo"
)

// MemoryStore holds administrators and audit rows in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	admins map[uuid.UUID]administrator.Administrator
	logs   []entities.SuperadminAuditLog
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{admins: make(map[uuid.UUID]administrator.Administrator)}
}

func (s *MemoryStore) Administrators() administrator.Repository { return &memAdmins{s} }
func (s *MemoryStore) AuditLogs() domain.SuperadminAuditLogRepository {
	return &memAuditLogs{s}
}

type memAdmins struct{ s *MemoryStore }

func (r *memAdmins) GetByID(_ context.Context, id uuid.UUID) (*administrator.Administrator, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, administrator.ErrNotFound
	}
	return &a, nil
}

func (r *memAdmins) GetByEmail(_ context.Context, email string) (*administrator.Administrator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.admins {
		if a.Email() == email {
			return &a, nil
		}
	}
	return nil, administrator.ErrNotFound
}

func (r *memAdmins) Create(_ context.Context, a *administrator.Administrator) (*administrator.Administrator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.admins {
		if existing.Email() == a.Email() {
			return nil, &repo.ConflictError{Field: "email", Constraint: "superadmins_email_key"}
		}
	}
	r.s.admins[a.ID()] = *a
	stored := r.s.admins[a.ID()]
	return &stored, nil
}

func (r *memAdmins) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return administrator.ErrNotFound
	}
	r.s.admins[id] = *administrator.New(
		a.Email(),
		a.Name(),
		a.PasswordHash(),
		administrator.WithID(a.ID()),
		administrator.WithIsActive(active),
		administrator.WithCreatedAt(a.CreatedAt()),
	)
	return nil
}

type memAuditLogs struct{ s *MemoryStore }

func (r *memAuditLogs) Create(_ context.Context, log *entities.SuperadminAuditLog) (*entities.SuperadminAuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	created := *log
	created.ID = r.s.nextID
	created.CreatedAt = time.Now()
	if len(created.Payload) == 0 {
		created.Payload = json.RawMessage("{}")
	}
	r.s.logs = append(r.s.logs, created)
	return &created, nil
}

func (r *memAuditLogs) List(_ context.Context, params *domain.AuditLogFindParams) ([]*entities.SuperadminAuditLog, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []*entities.SuperadminAuditLog
	for i := range r.s.logs {
		l := r.s.logs[i]
		if params.TenantSlug != "" && (l.TenantSlug == nil || *l.TenantSlug != params.TenantSlug) {
			continue
		}
		if params.Action != "" && l.Action != params.Action {
			continue
		}
		matched = append(matched, &l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if params.Offset >= total {
		return []*entities.SuperadminAuditLog{}, total, nil
	}
	end := total
	if params.Limit > 0 && params.Offset+params.Limit < end {
		end = params.Offset + params.Limit
	}
	return matched[params.Offset:end], total, nil
}
