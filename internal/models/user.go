package models

// Role is the kind of account an identity holds.
type Role string

const (
	RoleMentor    Role = "mentor"
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Account is the public projection of an identity. Credentials never leave
// the identity service, so nothing here is secret.
type Account struct {
	ID           string `json:"_id" bson:"_id"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	ProfileImage string `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	Role         Role   `json:"role" bson:"role"`
}

// DisplayName falls back to a neutral label for accounts without a name.
func (a *Account) DisplayName() string {
	if a == nil || a.Name == "" {
		return "Someone"
	}
	return a.Name
}
