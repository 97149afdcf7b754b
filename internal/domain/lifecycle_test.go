package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    CampaignStatus
		action  LifecycleAction
		want    CampaignStatus
		wantErr bool
	}{
		{"pause active", CampaignActive, ActionPause, CampaignPaused, false},
		{"pause paused", CampaignPaused, ActionPause, "", true},
		{"resume paused", CampaignPaused, ActionResume, CampaignActive, false},
		{"resume active", CampaignActive, ActionResume, "", true},
		{"complete active", CampaignActive, ActionComplete, CampaignCompleted, false},
		{"complete paused", CampaignPaused, ActionComplete, "", true},
		{"archive completed", CampaignCompleted, ActionArchive, CampaignArchived, false},
		{"archive paused", CampaignPaused, ActionArchive, CampaignArchived, false},
		{"archive deleted", CampaignDeleted, ActionArchive, "", true},
		{"delete archived", CampaignArchived, ActionSoftDelete, CampaignDeleted, false},
		{"delete deleted", CampaignDeleted, ActionSoftDelete, "", true},
		{"restore deleted", CampaignDeleted, ActionRestore, CampaignActive, false},
		{"restore archived", CampaignArchived, ActionRestore, CampaignActive, false},
		{"restore active", CampaignActive, ActionRestore, "", true},
		{"purge deleted", CampaignDeleted, ActionPurge, CampaignDeleted, false},
		{"purge active", CampaignActive, ActionPurge, "", true},
		{"unknown action", CampaignActive, LifecycleAction("explode"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NextStatus(tt.from, tt.action)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.To)
			assert.Equal(t, tt.from, tr.From)
		})
	}
}

func TestNextStatusClearsPause(t *testing.T) {
	tr, err := NextStatus(CampaignPaused, ActionResume)
	require.NoError(t, err)
	assert.True(t, tr.ClearsPause)

	tr, err = NextStatus(CampaignActive, ActionPause)
	require.NoError(t, err)
	assert.False(t, tr.ClearsPause)

	tr, err = NextStatus(CampaignDeleted, ActionPurge)
	require.NoError(t, err)
	assert.True(t, tr.Terminal)
}
