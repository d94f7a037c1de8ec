package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardEntryCarriesUserIdentifier(t *testing.T) {
	entry := newLeaderboardEntryResponse(LeaderboardEntryDTO{
		UserUUID:      "0198b3a0-0000-7000-8000-000000000001",
		TotalXP:       420,
		RoomsMastered: 3,
		GlobalTitle:   ResolveGlobalTitle(3),
		Rank:          1,
	})

	body, err := json.Marshal(entry)
	require.NoError(t, err)

	// 前端靠userUuid把行归属到用户并高亮自己
	assert.Contains(t, string(body), `"userUuid":"0198b3a0-0000-7000-8000-000000000001"`)
	assert.Contains(t, string(body), `"rank":1`)
}
