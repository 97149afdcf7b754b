package domain

// LifecycleAction is a user-initiated status change.
type LifecycleAction string

const (
	ActionPause      LifecycleAction = "pause"
	ActionResume     LifecycleAction = "resume"
	ActionComplete   LifecycleAction = "complete"
	ActionArchive    LifecycleAction = "archive"
	ActionSoftDelete LifecycleAction = "soft_delete"
	ActionRestore    LifecycleAction = "restore"
	ActionPurge      LifecycleAction = "purge"
)

// allowed lists the source statuses each action accepts.
var allowed = map[LifecycleAction][]CampaignStatus{
	ActionPause:      {CampaignActive},
	ActionResume:     {CampaignPaused},
	ActionComplete:   {CampaignActive},
	ActionArchive:    {CampaignActive, CampaignPaused, CampaignCompleted},
	ActionSoftDelete: {CampaignActive, CampaignPaused, CampaignCompleted, CampaignArchived},
	ActionRestore:    {CampaignPaused, CampaignCompleted, CampaignArchived, CampaignDeleted},
	ActionPurge:      {CampaignDeleted},
}

var targets = map[LifecycleAction]CampaignStatus{
	ActionPause:      CampaignPaused,
	ActionResume:     CampaignActive,
	ActionComplete:   CampaignCompleted,
	ActionArchive:    CampaignArchived,
	ActionSoftDelete: CampaignDeleted,
	ActionRestore:    CampaignActive,
	ActionPurge:      CampaignDeleted,
}

// Transition is the outcome of applying an action to a status.
type Transition struct {
	From   CampaignStatus
	To     CampaignStatus
	Action LifecycleAction
	// ClearsPause is set when the paused-until date must be cleared.
	ClearsPause bool
	// Terminal is set for purge: the campaign ceases to exist.
	Terminal bool
}

// NextStatus validates action against the current status. It returns
// ErrInvalidTransition when the action is not allowed from status.
func NextStatus(status CampaignStatus, action LifecycleAction) (Transition, error) {
	froms, ok := allowed[action]
	if !ok {
		return Transition{}, ErrInvalidTransition
	}
	for _, f := range froms {
		if f == status {
			to := targets[action]
			return Transition{
				From:        status,
				To:          to,
				Action:      action,
				ClearsPause: to != CampaignPaused,
				Terminal:    action == ActionPurge,
			}, nil
		}
	}
	return Transition{}, ErrInvalidTransition
}
