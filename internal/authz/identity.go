package authz

import "strconv"

// Identity is the authenticated actor as handed over by the authentication
// layer. Role and Roles may both be set; Assemble merges them.
type Identity struct {
	ID         string
	Role       string
	Roles      []string
	Attributes map[string]any
}

// UserIdentity builds an Identity for a stored user with a single role.
func UserIdentity(userID int64, role string) Identity {
	return Identity{ID: strconv.FormatInt(userID, 10), Role: role}
}

// Principal is the actor as sent to the PDP.
type Principal struct {
	ID         string
	Roles      []string
	Attributes map[string]string
}

func parseUserID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}
