package bridge

// Entity is the canonical identity of a send/receive target: a user, group,
// channel or similar scope on one platform, as seen by one connected bot.
//
// Identity is the triple (BotID, Kind, ID). Display fields are informational
// and excluded from identity. ParentID disambiguates nested scopes, e.g. the
// guild owning a channel.
//
// Entities are transient: they are built from event data or on demand and
// never persisted by this package.
type Entity struct {
	BotID    string
	Kind     string
	ID       string
	ParentID string

	DisplayName string
	Info        map[string]string
}

// Same reports whether two entities denote the same target, ignoring
// display fields.
func (e *Entity) Same(other *Entity) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.BotID == other.BotID && e.Kind == other.Kind && e.ID == other.ID
}

// IdentityKey returns a stable string form of the identity triple, suitable
// as an authorization or cooldown map key.
func (e *Entity) IdentityKey() string {
	return e.BotID + "|" + e.Kind + "|" + e.ID
}
