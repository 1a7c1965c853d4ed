package hub

import "strconv"

const groupPrefix = "user_"

// GroupKeyFor returns the broadcast group of a user. The key only depends on
// the id, so a reconnect after a restart lands in the same group.
func GroupKeyFor(userID uint) string {
	return groupPrefix + strconv.FormatUint(uint64(userID), 10)
}
