package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMemorySeed(t *testing.T) {
	bs, cs := businesses.NewMemoryStore(), coupons.NewMemoryStore()

	nb, nt, err := loadMemorySeed("testdata/seed.json", bs, cs)
	require.NoError(t, err)
	assert.Equal(t, 2, nb)
	assert.Equal(t, 1, nt)

	cafe, err := bs.GetBusinessByID(context.Background(), uuid.MustParse(seededCafeID))
	require.NoError(t, err)
	assert.Equal(t, businesses.StatusActive, cafe.Status)
	assert.Equal(t, 50.0, cafe.RadiusMeters)

	closed, err := bs.GetBusinessByID(context.Background(), uuid.MustParse(seededClosedID))
	require.NoError(t, err)
	assert.False(t, closed.IsActive())

	tpl := cs.ActiveReviewTemplate(cafe.ID)
	require.NotNil(t, tpl)
	assert.Equal(t, coupons.TemplateKindBusinessReward, tpl.Kind)
	assert.Equal(t, "15", tpl.RewardValue.String())
}

func TestLoadMemorySeed_Rejects(t *testing.T) {
	businessID := uuid.New().String()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"businesses": [`, "parse memory seed"},
		{"missing id", `{"businesses": [{"name": "x", "location": {"latitude": 1, "longitude": 1}}]}`, "id is required"},
		{"bad location", `{"businesses": [{"id": "` + businessID + `", "location": {"latitude": 91, "longitude": 1}}]}`, "invalid location"},
		{"orphan template", `{"templates": [{"business_id": "` + businessID + `", "reward_value": "5"}]}`, "unknown business"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, cs := businesses.NewMemoryStore(), coupons.NewMemoryStore()
			_, _, err := loadMemorySeed(writeSeed(t, tt.body), bs, cs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			_, err = bs.GetBusinessByID(context.Background(), uuid.MustParse(businessID))
			assert.ErrorIs(t, err, businesses.ErrBusinessNotFound, "nothing is loaded from a rejected seed")
		})
	}
}
