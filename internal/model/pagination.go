package model

import (
	"github.com/guregu/null/v6"
)

const (
	DefaultLimit int32 = 10
	MaxLimit     int32 = 100
)

// PaginationParams selects one page of an offset-paginated listing.
type PaginationParams struct {
	Page  null.Int32 `query:"page" validate:"omitnil,gt=0"`
	Limit int32      `query:"limit" validate:"omitempty,gt=0,lte=100"`
}

// GetPage returns the requested page, starting at 1.
func (p PaginationParams) GetPage() int32 {
	if !p.Page.Valid || p.Page.Int32 <= 0 {
		return 1
	}
	return p.Page.Int32
}

// GetLimit returns the page size, DefaultLimit when unset.
func (p PaginationParams) GetLimit() int32 {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return min(p.Limit, MaxLimit)
}

func (p PaginationParams) Offset() int32 {
	return (p.GetPage() - 1) * p.GetLimit()
}

// PaginateResult is one page of results. Total is set when the listing was
// counted; otherwise HasMore reports whether a further row was seen.
type PaginateResult[T any] struct {
	PageParams PaginationParams
	Data       []T
	Total      null.Int64
	HasMore    bool
}

func (p PaginateResult[T]) NextPage() null.Int32 {
	page, limit := p.PageParams.GetPage(), p.PageParams.GetLimit()
	if p.Total.Valid {
		if int64(page)*int64(limit) < p.Total.Int64 {
			return null.Int32From(page + 1)
		}
		return null.Int32{}
	}
	if p.HasMore {
		return null.Int32From(page + 1)
	}
	return null.Int32{}
}
