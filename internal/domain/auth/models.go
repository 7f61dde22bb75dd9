package auth

const UserStatusActive = "active"

type UserContext struct {
	UserID   string
	TenantID string
	RoleName string
}

func (u UserContext) Can(capability string) bool {
	return Allowed(u.RoleName, capability)
}

type AuthUser struct {
	ID       string
	TenantID string
	Role     string
	Name     string
	Password string
}
