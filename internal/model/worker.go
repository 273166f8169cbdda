package model

import "time"

// Role is the ranked position a worker holds. Rank order matters for
// report responsibility assignment.
type Role string

const (
	RoleAuxiliar        Role = "auxiliar"
	RolePreparador      Role = "preparador"
	RoleLiderPreparacao Role = "lider_preparacao"
	RoleAplicadorI      Role = "aplicador_i"
	RoleAplicadorII     Role = "aplicador_ii"
	RoleAplicadorIII    Role = "aplicador_iii"
	RoleLider           Role = "lider"
)

// roleRanks orders roles from lowest to highest. Higher rank wins the
// daily report responsibility.
var roleRanks = map[Role]int{
	RoleAuxiliar:        1,
	RolePreparador:      2,
	RoleLiderPreparacao: 3,
	RoleAplicadorI:      4,
	RoleAplicadorII:     5,
	RoleAplicadorIII:    6,
	RoleLider:           7,
}

// Rank returns the numeric rank of the role, 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether the role is part of the ranked set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Worker is a field worker with attendance counters and gamification state.
type Worker struct {
	BaseModel
	PublicID              int64      `gorm:"uniqueIndex;not null" json:"public_id"`
	Name                  string     `gorm:"type:varchar(128);not null" json:"name"`
	Role                  Role       `gorm:"type:varchar(32);not null;default:'auxiliar'" json:"role"`
	Active                bool       `gorm:"not null;default:true;index:idx_workers_active" json:"active"`
	XPTotal               int64      `gorm:"not null;default:0" json:"xp_total"`
	PunctualityStreak     int        `gorm:"not null;default:0" json:"punctuality_streak"`
	PunctualityMultiplier float64    `gorm:"not null;default:1.0" json:"punctuality_multiplier"`
	LastPunctualDate      *time.Time `gorm:"type:date" json:"last_punctual_date,omitempty"`

	// GPS-loss tracking. Set on the first non-granted location report,
	// cleared on any granted report.
	GPSOffSince *time.Time `gorm:"index:idx_workers_gps_off" json:"gps_off_since,omitempty"`
}

func (Worker) TableName() string {
	return "workers"
}
