package auth

import (
	"context"
	"slices"
	"sort"
)

const (
	RoleAdmin    = "admin"
	RoleLeader   = "leader"
	RoleEmployee = "employee"
)

const (
	CapDirectoryRead      = "directory.read"
	CapDirectoryWrite     = "directory.write"
	CapScoresRead         = "scores.read"
	CapScoresWrite        = "scores.write"
	CapScoresManage       = "scores.manage"
	CapEvaluationsRead    = "evaluations.read"
	CapEvaluationsWrite   = "evaluations.write"
	CapEvaluationsApprove = "evaluations.approve"
	CapFinalScoresRead    = "finalscores.read"
	CapFinalScoresCompute = "finalscores.compute"
	CapFinalScoresFinal   = "finalscores.finalize"
	CapAuditRead          = "audit.read"
	CapJobsRead           = "jobs.read"
)

var Roles = []string{RoleAdmin, RoleLeader, RoleEmployee}

// Policy maps every capability to the roles allowed to use it.
var Policy = map[string][]string{
	CapDirectoryRead:      {RoleAdmin, RoleLeader, RoleEmployee},
	CapDirectoryWrite:     {RoleAdmin},
	CapScoresRead:         {RoleAdmin, RoleLeader, RoleEmployee},
	CapScoresWrite:        {RoleAdmin, RoleLeader},
	CapScoresManage:       {RoleAdmin},
	CapEvaluationsRead:    {RoleAdmin, RoleLeader, RoleEmployee},
	CapEvaluationsWrite:   {RoleAdmin, RoleLeader, RoleEmployee},
	CapEvaluationsApprove: {RoleAdmin, RoleLeader},
	CapFinalScoresRead:    {RoleAdmin, RoleLeader, RoleEmployee},
	CapFinalScoresCompute: {RoleAdmin, RoleLeader},
	CapFinalScoresFinal:   {RoleAdmin},
	CapAuditRead:          {RoleAdmin},
	CapJobsRead:           {RoleAdmin},
}

func Allowed(role, capability string) bool {
	return slices.Contains(Policy[capability], role)
}

// Capabilities lists every capability in the policy table in sorted order.
func Capabilities() []string {
	out := make([]string, 0, len(Policy))
	for capability := range Policy {
		out = append(out, capability)
	}
	sort.Strings(out)
	return out
}

func ValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

// PolicyTable answers permission checks from the static Policy table.
type PolicyTable struct{}

func (PolicyTable) HasPermission(_ context.Context, role, capability string) (bool, error) {
	return Allowed(role, capability), nil
}
