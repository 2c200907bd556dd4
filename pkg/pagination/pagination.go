package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/verified-reviews/pkg/common"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a resolved limit/offset window
type Params struct {
	Limit  int
	Offset int
}

// ParseParams reads ?limit= with either ?offset= or a 1-based ?page=.
// Offset wins when both are present. Invalid values fall back to the
// first page of DefaultLimit; limit is capped at MaxLimit.
func ParseParams(c *gin.Context) Params {
	p := Params{Limit: DefaultLimit}

	if v, ok := positive(c.Query("limit")); ok {
		p.Limit = min(v, MaxLimit)
	}

	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		p.Offset = v
	} else if page, ok := positive(c.Query("page")); ok {
		p.Offset = (page - 1) * p.Limit
	}

	return p
}

func positive(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil && v > 0
}

// BuildMeta builds response pagination metadata
func BuildMeta(limit, offset int, total int64) *common.Meta {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &common.Meta{
		Limit:      limit,
		Offset:     offset,
		Total:      total,
		TotalPages: totalPages,
	}
}
