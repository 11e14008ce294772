package redis

import (
	"fmt"
	"strings"

	"github.com/mcoot/dinkup/internal/model"
)

// Key prefix for all dinkup data
const keyPrefix = "dinkup"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, strings.ToLower(email))
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// accountPlayerIndexKey returns the Redis key for the account_id -> player_id index
func accountPlayerIndexKey(accountID model.AccountID) string {
	return fmt.Sprintf("%s:idx:account_player:%s", keyPrefix, accountID)
}

// poolKey returns the Redis key for a Pool
func poolKey(id model.PoolID) string {
	return fmt.Sprintf("%s:pool:%s", keyPrefix, id)
}

// inviteIndexKey returns the Redis key for the invite_code -> pool_id index
func inviteIndexKey(code model.InviteCode) string {
	return fmt.Sprintf("%s:idx:invite:%s", keyPrefix, code)
}

// playerPoolsIndexKey returns the Redis key for the SET of pools a player actively belongs to
func playerPoolsIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_pools:%s", keyPrefix, playerID)
}

// sessionKey returns the Redis key for a Session, roster and payments included
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// poolSessionsIndexKey returns the Redis key for the ZSET of a pool's sessions scored by start time
func poolSessionsIndexKey(poolID model.PoolID) string {
	return fmt.Sprintf("%s:idx:pool_sessions:%s", keyPrefix, poolID)
}

// deadlineIndexKey returns the Redis key for the ZSET of locked sessions scored by payment deadline
func deadlineIndexKey() string {
	return fmt.Sprintf("%s:idx:payment_deadlines", keyPrefix)
}

// paymentIndexKey returns the Redis key for the HASH of payment_id -> session_id
func paymentIndexKey() string {
	return fmt.Sprintf("%s:idx:payments", keyPrefix)
}
