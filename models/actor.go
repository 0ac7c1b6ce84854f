package models

import "strings"

// Role is a closed set of department and civilian roles
type Role string

// Roles
const (
	RoleCadet         Role = "cadet"
	RolePatrolOfficer Role = "patrol_officer"
	RolePoliceOfficer Role = "police_officer"
	RoleDetective     Role = "detective"
	RoleSergeant      Role = "sergeant"
	RoleCaptain       Role = "captain"
	RoleChief         Role = "chief"
	RoleJudge         Role = "judge"
	RoleCoroner       Role = "coroner"
	RoleAdministrator Role = "administrator"
	RoleComplainant   Role = "complainant"
	RoleWitness       Role = "witness"
	RoleBaseUser      Role = "base_user"
)

// AllRoles lists every known role
var AllRoles = []Role{
	RoleCadet, RolePatrolOfficer, RolePoliceOfficer, RoleDetective, RoleSergeant,
	RoleCaptain, RoleChief, RoleJudge, RoleCoroner, RoleAdministrator,
	RoleComplainant, RoleWitness, RoleBaseUser,
}

// ParseRole accepts the canonical name or the human form ("Police Officer")
func ParseRole(s string) (Role, bool) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	for _, r := range AllRoles {
		if string(r) == name {
			return r, true
		}
	}
	return "", false
}

// Actor is the authenticated caller as supplied by the identity provider
type Actor struct {
	ID          int64  `json:"id"`
	NationalID  string `json:"nationalID"`
	Roles       []Role `json:"roles"`
	IsSuperuser bool   `json:"isSuperuser"`
}
