package relay

import (
	"github.com/puzpuzpuz/xsync/v3"
)

const defaultRegistryCapacity = 1024

// TicketRegistry remembers which chat requester created a ticket. It is a
// best-effort diagnostic aid: bounded, process-local and empty after restart.
type TicketRegistry struct {
	entries  *xsync.MapOf[int64, string]
	capacity int
}

// NewTicketRegistry returns a registry holding at most capacity entries.
func NewTicketRegistry(capacity int) *TicketRegistry {
	if capacity <= 0 {
		capacity = defaultRegistryCapacity
	}
	return &TicketRegistry{
		entries:  xsync.NewMapOf[int64, string](),
		capacity: capacity,
	}
}

// Record stores the requester for ticketID, evicting arbitrary entries until there is room.
func (r *TicketRegistry) Record(ticketID int64, requester string) {
	if r == nil || ticketID <= 0 {
		return
	}
	if _, exists := r.entries.Load(ticketID); !exists {
		r.entries.Range(func(key int64, _ string) bool {
			if r.entries.Size() < r.capacity {
				return false
			}
			r.entries.Delete(key)
			return true
		})
	}
	r.entries.Store(ticketID, requester)
}

// Lookup returns the requester recorded for ticketID.
func (r *TicketRegistry) Lookup(ticketID int64) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.entries.Load(ticketID)
}

// Len returns the number of tracked tickets.
func (r *TicketRegistry) Len() int {
	if r == nil {
		return 0
	}
	return r.entries.Size()
}
