package workflow

import "github.com/linesmerrill/police-case-api/models"

// Capability is a named permission an operation checks for
type Capability string

// Capabilities
const (
	CapInternReview        Capability = "case.complaint.intern_review"
	CapOfficerReview       Capability = "case.complaint.officer_review"
	CapSceneCreate         Capability = "case.scene.create"
	CapSceneAddComplainant Capability = "case.scene.add_complainant"
	CapAssignDetective     Capability = "case.assign_detective"
	CapReadAll             Capability = "case.read_all"
	CapBoardManage         Capability = "investigation.board.manage"
	CapSuspectManage       Capability = "suspect.manage"
	CapInterrogationManage Capability = "interrogation.manage"
	CapCaptainDecision     Capability = "interrogation.captain_decision"
	CapChiefReview         Capability = "interrogation.chief_review"
	CapVerdict             Capability = "judiciary.verdict"
	CapTipSubmit           Capability = "tip.submit"
	CapTipOfficerReview    Capability = "tip.officer_review"
	CapTipDetectiveReview  Capability = "tip.detective_review"
	CapRewardVerify        Capability = "reward.verify"
	CapDashboardRead       Capability = "dashboard.read"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleBaseUser:      {CapTipSubmit},
	models.RoleAdministrator: {CapDashboardRead, CapReadAll},
	models.RoleChief: {
		CapAssignDetective, CapSceneCreate, CapChiefReview,
		CapReadAll, CapDashboardRead, CapSceneAddComplainant,
	},
	models.RoleCaptain: {
		CapAssignDetective, CapCaptainDecision,
		CapReadAll, CapDashboardRead, CapSceneAddComplainant,
	},
	models.RoleSergeant: {
		CapAssignDetective, CapOfficerReview, CapSuspectManage,
		CapInterrogationManage, CapReadAll, CapSceneAddComplainant,
	},
	models.RoleDetective: {
		CapBoardManage, CapSuspectManage, CapInterrogationManage,
		CapTipDetectiveReview, CapReadAll, CapSceneAddComplainant,
	},
	models.RolePoliceOfficer: {
		CapSceneCreate, CapOfficerReview, CapTipOfficerReview,
		CapRewardVerify, CapReadAll, CapSceneAddComplainant,
	},
	models.RolePatrolOfficer: {CapSceneCreate, CapReadAll, CapSceneAddComplainant},
	models.RoleCadet:         {CapInternReview, CapReadAll},
	models.RoleComplainant:   {CapTipSubmit},
	models.RoleWitness:       {CapTipSubmit},
	models.RoleJudge:         {CapVerdict, CapReadAll},
	models.RoleCoroner:       {CapReadAll},
}

var policeRank = map[models.Role]int{
	models.RoleCadet:         1,
	models.RolePatrolOfficer: 2,
	models.RolePoliceOfficer: 3,
	models.RoleDetective:     3,
	models.RoleSergeant:      4,
	models.RoleCaptain:       5,
	models.RoleChief:         6,
}

// TopRank is the rank whose scene reports need no approval
const TopRank = 6

// Principal is an actor with its roles resolved into capabilities and a police rank.
// Build it once per request with Resolve.
type Principal struct {
	Actor models.Actor
	roles map[models.Role]bool
	caps  map[Capability]bool
	rank  int
}

// Resolve expands the actor's roles into the capability set and highest police rank
func Resolve(actor models.Actor) Principal {
	p := Principal{
		Actor: actor,
		roles: make(map[models.Role]bool, len(actor.Roles)),
		caps:  make(map[Capability]bool),
	}
	for _, r := range actor.Roles {
		p.roles[r] = true
		for _, c := range roleCapabilities[r] {
			p.caps[c] = true
		}
		if rank := policeRank[r]; rank > p.rank {
			p.rank = rank
		}
	}
	return p
}

// ID returns the actor id
func (p Principal) ID() int64 { return p.Actor.ID }

// Superuser reports whether every gate is bypassed
func (p Principal) Superuser() bool { return p.Actor.IsSuperuser }

// HasRole reports whether the actor holds r. Superusers hold every role.
func (p Principal) HasRole(r models.Role) bool {
	return p.Actor.IsSuperuser || p.roles[r]
}

// Can reports whether the actor holds capability c
func (p Principal) Can(c Capability) bool {
	return p.Actor.IsSuperuser || p.caps[c]
}

// Rank is the highest police rank held, 0 for civilians
func (p Principal) Rank() int {
	return p.rank
}

// Capabilities lists the resolved capabilities
func (p Principal) Capabilities() []Capability {
	out := make([]Capability, 0, len(p.caps))
	for c := range p.caps {
		out = append(out, c)
	}
	return out
}

func (p Principal) require(c Capability) error {
	if !p.Can(c) {
		return deniedf("missing capability %s", c)
	}
	return nil
}

func (p Principal) requireRole(r models.Role) error {
	if !p.HasRole(r) {
		return deniedf("requires the %s role", r)
	}
	return nil
}
