package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tirebot/models"
)

func TestParseMode(t *testing.T) {
	require.Equal(t, ModeHits, ParseMode(" HITS "))
	require.Equal(t, ModeAlways, ParseMode("always"))
	require.Equal(t, ModeAlways, ParseMode(""))
	require.Equal(t, ModeAlways, ParseMode("sometimes"))
}

func TestShouldSend(t *testing.T) {
	empty := &models.RunReport{}
	hit := &models.RunReport{Alerts: []*models.Alert{{Listing: &models.Listing{}}}}

	require.True(t, ShouldSend(empty, ModeAlways))
	require.True(t, ShouldSend(hit, ModeAlways))
	require.False(t, ShouldSend(empty, ModeHits))
	require.False(t, ShouldSend(nil, ModeHits))
	require.True(t, ShouldSend(hit, ModeHits))
}
