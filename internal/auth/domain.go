package auth

// User represents a portal account in the local directory. The directory is
// static in-memory configuration; there is no database behind it.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Roles        []string
	IsActive     bool
}
