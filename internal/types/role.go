package types

// Role is one stage of the fixed generation pipeline. The Coordinator is not
// part of the per-step sequence; it merges outcomes after a step terminates.
type Role string

const (
	RoleArchitect   Role = "architect"
	RoleTranslator  Role = "translator"
	RoleProgrammer  Role = "programmer"
	RoleReviewer    Role = "reviewer"
	RoleRefiner     Role = "refiner"
	RoleValidator   Role = "validator"
	RoleCoordinator Role = "coordinator"
)

// PipelineRoles returns the per-step role sequence in execution order.
func PipelineRoles() []Role {
	return []Role{
		RoleArchitect,
		RoleTranslator,
		RoleProgrammer,
		RoleReviewer,
		RoleRefiner,
		RoleValidator,
	}
}
