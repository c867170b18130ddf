// Package authz decides who may mutate a joke.
package authz

import "github.com/dmitrijs2005/gophjokes/internal/server/models"

// CanMutate reports whether callerID owns joke. Anonymous callers and
// ownerless jokes never match.
func CanMutate(joke *models.Joke, callerID string) bool {
	if joke == nil || callerID == "" || !joke.HasOwner() {
		return false
	}
	return joke.OwnerID == callerID
}
