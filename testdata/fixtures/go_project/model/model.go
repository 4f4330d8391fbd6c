package model

// User represents a system user.
type User struct {
	ID    int
	Name  string
	Email string
}

// Repository is the interface for user storage.
type Repository interface {
	FindByID(id int) (*User, error)
	Save(user *User) error
}

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = "member"

// NewUser creates a user pending persistence.
func NewUser(name, email string) *User {
	return &User{Name: name, Email: email}
}

func normalizeEmail(email string) string {
	return email
}
