// Package permission holds the decision engine that gates every direct
// message. It is a pure function over the sender's and receiver's role and
// department plus the state of their conversation; storage lookups and
// failure handling live with the caller.
package permission

import (
	"github.com/frahmantamala/org-chat/internal/directory"
)

// Principal is the slice of a directory user the engine needs.
type Principal struct {
	Role         directory.Role
	DepartmentID string
}

// ConversationState describes the pair's conversation record. Exists is
// false when the pair has never exchanged a message; Disabled is only
// meaningful when Exists is true but is carried separately so the engine
// stays oblivious to storage.
type ConversationState struct {
	Exists   bool
	Disabled bool
}

// Decision is the engine's verdict. Reason is a human-readable string safe
// to surface to the sender; empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide evaluates the ordered role policy. The order is load-bearing:
// admins bypass the disabled flag entirely, department heads are only
// blocked by it when targeting their own employees, while employees are
// blocked by a disabled conversation before any target rule is considered.
func Decide(sender, receiver Principal, conv ConversationState) Decision {
	switch sender.Role {
	case directory.RoleAdmin:
		// Admin can message anyone, even in a disabled conversation,
		// so they always have the last word.
		return allow()

	case directory.RoleDepartmentHead:
		if receiver.Role == directory.RoleAdmin {
			return allow()
		}
		if receiver.Role == directory.RoleEmployee && sender.DepartmentID == receiver.DepartmentID {
			if conv.Disabled {
				return deny("Chat is disabled.")
			}
			return allow()
		}
		return deny("You can only message Admins or your Department's employees.")

	case directory.RoleEmployee:
		// A disabled conversation blocks an employee from any target.
		if conv.Disabled {
			return deny("This chat has been disabled.")
		}
		if receiver.Role == directory.RoleDepartmentHead {
			if sender.DepartmentID == receiver.DepartmentID {
				return allow()
			}
			return deny("You can only message your own Department Head.")
		}
		if receiver.Role == directory.RoleAdmin {
			// Reply-only: employees cannot initiate contact with an admin.
			if conv.Exists {
				return allow()
			}
			return deny("You cannot start a chat with an Admin. Wait for them to message you.")
		}
		return deny("Permission Denied.")
	}

	return deny("Permission Denied")
}
