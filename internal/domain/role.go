package domain

import "fmt"

// Role — вид агента, выполняющего задачу.
//
// Роли не уникальны внутри pipeline: optimizer встречается дважды
// (первичная оптимизация и доработка после ревью).
type Role int

const (
	RolePlanner Role = iota + 1
	RoleRecruiter
	RoleOptimizer
	RoleReviewer
	RoleCoach
	RoleInterviewer
)

var roleKeys = map[Role]string{
	RolePlanner:     "planner",
	RoleRecruiter:   "recruiter",
	RoleOptimizer:   "optimizer",
	RoleReviewer:    "reviewer",
	RoleCoach:       "coach",
	RoleInterviewer: "interviewer",
}

var roleTitles = map[Role]string{
	RolePlanner:     "Career Planner",
	RoleRecruiter:   "Job Recruiter",
	RoleOptimizer:   "Resume Optimizer",
	RoleReviewer:    "Quality Reviewer",
	RoleCoach:       "Interview Coach",
	RoleInterviewer: "Mock Interviewer",
}

// Roles возвращает все роли в каноническом порядке.
func Roles() []Role {
	return []Role{RolePlanner, RoleRecruiter, RoleOptimizer, RoleReviewer, RoleCoach, RoleInterviewer}
}

// Key возвращает идентификатор роли в нижнем регистре ("planner", "optimizer", ...).
// Этот идентификатор передаётся AI-движку и используется как ключ агрегации.
func (r Role) Key() string {
	if k, ok := roleKeys[r]; ok {
		return k
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Title возвращает человекочитаемое название роли (для логов и прогресса).
func (r Role) Title() string {
	if t, ok := roleTitles[r]; ok {
		return t
	}
	return r.Key()
}

// String реализует fmt.Stringer.
func (r Role) String() string {
	return r.Key()
}

// IsValid проверяет, что роль входит в перечисление.
func (r Role) IsValid() bool {
	_, ok := roleKeys[r]
	return ok
}

// ParseRole парсит идентификатор роли.
func ParseRole(s string) (Role, error) {
	for r, k := range roleKeys {
		if k == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// MarshalText кодирует роль её ключом ("planner").
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Key()), nil
}

// UnmarshalText разбирает ключ роли.
func (r *Role) UnmarshalText(data []byte) error {
	parsed, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
