package model

// Role is the closed set of workflow roles. Authorization is a static
// capability table, not per-user permission rows.
type Role string

const (
	RoleStaff      Role = "staff"
	RoleApproverL1 Role = "approver_l1"
	RoleApproverL2 Role = "approver_l2"
	RoleFinance    Role = "finance"
	RoleAdmin      Role = "admin"
)

// Action is a workflow operation a role may be allowed to perform.
type Action string

const (
	ActionCreateRequest Action = "create_request"
	ActionEditRequest   Action = "edit_request"
	ActionDecideRequest Action = "decide_request"
	ActionSubmitReceipt Action = "submit_receipt"
	ActionViewAll       Action = "view_all"
	ActionManageUsers   Action = "manage_users"
)

var roleCapabilities = map[Role]map[Action]bool{
	RoleStaff: {
		ActionCreateRequest: true,
		ActionEditRequest:   true,
		ActionSubmitReceipt: true,
	},
	RoleApproverL1: {
		ActionDecideRequest: true,
		ActionViewAll:       true,
	},
	RoleApproverL2: {
		ActionDecideRequest: true,
		ActionViewAll:       true,
	},
	RoleFinance: {
		ActionViewAll: true,
	},
	RoleAdmin: {
		ActionViewAll:     true,
		ActionManageUsers: true,
	},
}

// ValidRole reports whether the given string names a known role.
func ValidRole(role string) bool {
	_, ok := roleCapabilities[Role(role)]
	return ok
}

// Can reports whether the role is allowed to perform the action.
func (r Role) Can(action Action) bool {
	return roleCapabilities[r][action]
}

// IsApprover reports whether the role belongs to an approval tier.
func (r Role) IsApprover() bool {
	return r == RoleApproverL1 || r == RoleApproverL2
}

// ApprovalLevel returns the numeric tier of an approver role, 0 otherwise.
func (r Role) ApprovalLevel() int {
	switch r {
	case RoleApproverL1:
		return 1
	case RoleApproverL2:
		return 2
	default:
		return 0
	}
}

// DisplayName returns the human readable role label.
func (r Role) DisplayName() string {
	switch r {
	case RoleStaff:
		return "Staff"
	case RoleApproverL1:
		return "Approver Level 1"
	case RoleApproverL2:
		return "Approver Level 2"
	case RoleFinance:
		return "Finance Team"
	case RoleAdmin:
		return "Administrator"
	default:
		return string(r)
	}
}
