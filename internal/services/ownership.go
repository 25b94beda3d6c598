package services

// Owned is anything recorded as created by a single user.
type Owned interface {
	OwnerID() uint
}

func isOwner(resource Owned, actorID uint) bool {
	return actorID != 0 && resource.OwnerID() == actorID
}
