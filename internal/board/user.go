package board

type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePlayer, RoleViewer:
		return true
	default:
		return false
	}
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CanDrag reports whether user may move the entity with the given id.
// Admins may move any entity, players only their own, viewers and
// anonymous sessions nothing.
func CanDrag(user User, loggedIn bool, entityID int) bool {
	if !loggedIn {
		return false
	}
	switch user.Role {
	case RoleAdmin:
		return true
	case RolePlayer:
		return user.ID == entityID
	default:
		return false
	}
}
