package chat

import "time"

// PresenceEntry is the value stored per user in the online-users hash.
type PresenceEntry struct {
	LastSeen time.Time `json:"lastSeen"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
}

// Online reports whether the entry is fresh at now.
func (p PresenceEntry) Online(now time.Time, staleAfter time.Duration) bool {
	return !p.LastSeen.IsZero() && now.Sub(p.LastSeen) < staleAfter
}

// OnlineUser is one row of the presence listing.
type OnlineUser struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	Avatar   string     `json:"avatar"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen"`
}
