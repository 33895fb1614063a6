package merge

import coursedomain "studydash-backend/internal/course/domain"

// PromoteStatus applies the one-way completion ratchet. When the
// provider reports the item complete, a not-yet-completed local item is
// promoted to completed. A locally-completed item is never demoted,
// even if the provider later reports it as not submitted (a regrade,
// for example).
func PromoteStatus(local coursedomain.WorkItemStatus, remoteComplete bool) coursedomain.WorkItemStatus {
	if local == coursedomain.WorkItemStatusCompleted {
		return local
	}
	if remoteComplete {
		return coursedomain.WorkItemStatusCompleted
	}
	return local
}
