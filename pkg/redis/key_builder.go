package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building so staging and
// production can share an instance without key collisions.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an environment-based prefix.
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix.
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix.
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeySession is the session record for a bearer token.
func (kb *KeyBuilder) KeySession(token string) string {
	return kb.BuildKey(fmt.Sprintf(KeySessionFmt, token))
}

// KeyPublicTally is the cached public tally for an amendment.
func (kb *KeyBuilder) KeyPublicTally(amendmentID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyPublicTallyFmt, amendmentID))
}

// KeyAmendmentList is the cached authenticated amendment listing.
func (kb *KeyBuilder) KeyAmendmentList() string {
	return kb.BuildKey(KeyAmendmentListName)
}

// KeyCustom builds a key from an arbitrary pattern.
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(pattern, args...))
}
