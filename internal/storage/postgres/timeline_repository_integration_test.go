package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)

	openedAt := time.Now().UTC().Add(-time.Minute).Round(time.Microsecond)
	require.NoError(t, repo.Append(domain.TimelineEvent{
		SessionID: "sess-1",
		Type:      domain.TimelineDraftOpened,
		Reason:    "new",
		Occurred:  openedAt,
	}))
	// Нулевой Occurred заполняется текущим временем.
	require.NoError(t, repo.Append(domain.TimelineEvent{
		SessionID: "sess-1",
		OrderID:   "O1",
		Type:      domain.TimelineDraftSaved,
		Reason:    "created",
	}))
	require.NoError(t, repo.Append(domain.TimelineEvent{
		SessionID: "sess-2",
		Type:      domain.TimelineDraftOpened,
		Occurred:  openedAt,
	}))

	events, err := repo.List("sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TimelineDraftOpened, events[0].Type)
	assert.True(t, events[0].Occurred.Equal(openedAt))
	assert.Equal(t, domain.TimelineDraftSaved, events[1].Type)
	assert.Equal(t, "O1", events[1].OrderID)
	assert.False(t, events[1].Occurred.Before(events[0].Occurred))
}

func TestTimelineRepository_PostgresRequiresSession(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)

	require.Error(t, repo.Append(domain.TimelineEvent{Type: domain.TimelineDraftOpened}))

	events, err := repo.List("missing-session")
	require.NoError(t, err)
	assert.Empty(t, events)
}
