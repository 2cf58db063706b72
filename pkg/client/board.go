package client

import (
	"context"
	"sync"
)

// LeadBoard caches one filtered listing. Every mutation re-fetches it.
type LeadBoard struct {
	client *Client

	mu     sync.RWMutex
	filter LeadFilter
	leads  []Lead
}

// NewLeadBoard returns an empty board. Call Refresh to load it.
func NewLeadBoard(c *Client, filter LeadFilter) *LeadBoard {
	return &LeadBoard{client: c, filter: filter}
}

// Leads returns a copy of the cached listing.
func (b *LeadBoard) Leads() []Lead {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Lead(nil), b.leads...)
}

// Filter returns the filter the listing was loaded with.
func (b *LeadBoard) Filter() LeadFilter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Refresh reloads the listing. On error the previous listing is kept.
func (b *LeadBoard) Refresh(ctx context.Context) error {
	filter := b.Filter()
	leads, err := b.client.ListLeads(ctx, filter)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.leads = leads
	b.mu.Unlock()
	return nil
}

// SetFilter replaces the filter and reloads.
func (b *LeadBoard) SetFilter(ctx context.Context, filter LeadFilter) error {
	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// SetStatus updates one lead and then reloads the listing.
func (b *LeadBoard) SetStatus(ctx context.Context, id, status string) (*Lead, error) {
	lead, err := b.client.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return lead, b.Refresh(ctx)
}

// Toggle flips a lead between PENDING and REACHED_OUT.
func (b *LeadBoard) Toggle(ctx context.Context, lead Lead) (*Lead, error) {
	next := StatusReachedOut
	if lead.Status == StatusReachedOut {
		next = StatusPending
	}
	return b.SetStatus(ctx, lead.ID, next)
}
