package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/internal/geo"
)

// memorySeed is the fixture format behind REVIEW_MEMORY_SEED
type memorySeed struct {
	Businesses []*businesses.Business `json:"businesses"`
	Templates  []*coupons.Template    `json:"templates"`
}

// loadMemorySeed fills the memory stores from a JSON file. Businesses without
// a status are active; templates default to the review reward kind.
func loadMemorySeed(path string, bs *businesses.MemoryStore, cs *coupons.MemoryStore) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read memory seed: %w", err)
	}

	var seed memorySeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, 0, fmt.Errorf("parse memory seed %s: %w", path, err)
	}

	known := make(map[uuid.UUID]bool, len(seed.Businesses))
	for i, b := range seed.Businesses {
		if b == nil || b.ID == uuid.Nil {
			return 0, 0, fmt.Errorf("memory seed business %d: id is required", i)
		}
		if !geo.ValidCoordinates(b.Location.Latitude, b.Location.Longitude) {
			return 0, 0, fmt.Errorf("memory seed business %s: invalid location", b.ID)
		}
		if b.Status == "" {
			b.Status = businesses.StatusActive
		}
		known[b.ID] = true
	}

	for i, tpl := range seed.Templates {
		if tpl == nil || !known[tpl.BusinessID] {
			return 0, 0, fmt.Errorf("memory seed template %d: unknown business", i)
		}
		if tpl.Kind == "" {
			tpl.Kind = coupons.TemplateKindBusinessReward
		}
	}

	for _, b := range seed.Businesses {
		bs.Put(b)
	}
	for _, tpl := range seed.Templates {
		cs.PutTemplate(tpl)
	}
	return len(seed.Businesses), len(seed.Templates), nil
}
