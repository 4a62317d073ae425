package rooms

import "slices"

// roster is the membership shared by video and build rooms: an ordered,
// duplicate-free list of user ids plus the privileged leader (host or owner).
type roster struct {
	leader  string
	members []string
}

func newRoster(leader string) roster {
	return roster{leader: leader, members: []string{leader}}
}

// add appends id unless already present.
func (r *roster) add(id string) bool {
	if r.has(id) {
		return false
	}
	r.members = append(r.members, id)
	return true
}

func (r *roster) has(id string) bool {
	return slices.Contains(r.members, id)
}

// remove drops id and reports what happened. When the leader leaves and
// others remain, the first remaining member is promoted.
func (r *roster) remove(id string) Departure {
	i := slices.Index(r.members, id)
	if i < 0 {
		return Departure{Found: true}
	}
	r.members = slices.Delete(r.members, i, i+1)

	d := Departure{Found: true, Removed: true}
	switch {
	case len(r.members) == 0:
		d.Deleted = true
	case r.leader == id:
		r.leader = r.members[0]
		d.NewLeader = r.leader
	}
	return d
}

func (r *roster) snapshot() []string {
	return slices.Clone(r.members)
}

// Departure describes the outcome of removing a member from a room.
type Departure struct {
	// Found is false when the room did not exist.
	Found bool
	// Removed is false when the user was not a member.
	Removed bool
	// NewLeader is set when the leader left and someone was promoted.
	NewLeader string
	// Deleted is true when the room became empty and was dropped.
	Deleted bool
}
