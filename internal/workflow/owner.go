package workflow

import "strings"

type ownerKind int

const (
	ownerUnchanged ownerKind = iota
	ownerUnassign
	ownerAssign
)

// OwnerChange describes what an update does to the ticket's assignee.
// The zero value leaves the assignee untouched.
type OwnerChange struct {
	kind   ownerKind
	userID string
}

// OwnerUnchanged keeps the current assignee.
func OwnerUnchanged() OwnerChange { return OwnerChange{} }

// Unassign clears the assignee.
func Unassign() OwnerChange { return OwnerChange{kind: ownerUnassign} }

// AssignTo hands the ticket to userID. An empty id unassigns.
func AssignTo(userID string) OwnerChange {
	if userID == "" {
		return Unassign()
	}
	return OwnerChange{kind: ownerAssign, userID: userID}
}

// ParseOwnerChange maps the wire encoding used by forms and the CLI:
// "" or "-1" keeps the owner, "0" unassigns, anything else is a user id.
func ParseOwnerChange(raw string) OwnerChange {
	switch raw = strings.TrimSpace(raw); raw {
	case "", "-1":
		return OwnerUnchanged()
	case "0":
		return Unassign()
	default:
		return AssignTo(raw)
	}
}

func (o OwnerChange) IsUnchanged() bool { return o.kind == ownerUnchanged }

func (o OwnerChange) IsUnassign() bool { return o.kind == ownerUnassign }

// UserID returns the target user when the change assigns the ticket.
func (o OwnerChange) UserID() (string, bool) {
	return o.userID, o.kind == ownerAssign
}

func (o OwnerChange) String() string {
	switch o.kind {
	case ownerUnassign:
		return "unassign"
	case ownerAssign:
		return "assign:" + o.userID
	default:
		return "unchanged"
	}
}
