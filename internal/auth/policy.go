package auth

// AdminUsername is the reserved name that bootstraps an administrator.
const AdminUsername = "admin"

// IsBootstrapAdmin decides the isAdmin flag of a new account. It is consulted
// once, at registration; the stored flag is authoritative afterwards and is
// never re-derived from the username.
func IsBootstrapAdmin(username string) bool {
	return username == AdminUsername
}
