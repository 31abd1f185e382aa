package services

import (
	"context"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/core/domain"
)

// Clock returns the current time. "Today" is its calendar date.
type Clock func() time.Time

// AuditSink receives audit entries. Record must not block the caller.
type AuditSink interface {
	Record(entry domain.AuditEntry)
}

// MembershipCache caches membership views and receives invalidation signals.
// Version returns a token that changes on every invalidation of the entry;
// Set stores the view only if the token is still current.
type MembershipCache interface {
	Get(ctx context.Context, companyID, id uint) (*models.MembershipResponse, bool)
	Version(ctx context.Context, companyID, id uint) (int64, bool)
	Set(ctx context.Context, companyID uint, membership *models.MembershipResponse, version int64)
	Invalidate(ctx context.Context, companyID, id uint)
	InvalidateAll(ctx context.Context)
}

// NopAudit discards audit entries
type NopAudit struct{}

func (NopAudit) Record(domain.AuditEntry) {}

// NopCache never caches
type NopCache struct{}

func (NopCache) Get(context.Context, uint, uint) (*models.MembershipResponse, bool) {
	return nil, false
}

func (NopCache) Version(context.Context, uint, uint) (int64, bool) {
	return 0, false
}

func (NopCache) Set(context.Context, uint, *models.MembershipResponse, int64) {}

func (NopCache) Invalidate(context.Context, uint, uint) {}

func (NopCache) InvalidateAll(context.Context) {}
