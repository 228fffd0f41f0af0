package response

import (
	"net/http"

	"github.com/guregu/null/v6"

	"github.com/beanbocchi/blobfs/internal/model"
)

type PaginationResponse[T any] struct {
	Data     []T      `json:"data"`
	PageMeta PageMeta `json:"pagination"`
}

type PageMeta struct {
	Limit    int32      `json:"limit"`
	Total    null.Int64 `json:"total"`
	Page     int32      `json:"page"`
	NextPage null.Int32 `json:"next_page"`
}

// FromPage writes a page of results with its pagination metadata.
func FromPage[T any](w http.ResponseWriter, status int, result model.PaginateResult[T]) error {
	return write(w, status, CommonResponse{Data: PaginationResponse[T]{
		Data: result.Data,
		PageMeta: PageMeta{
			Limit:    result.PageParams.GetLimit(),
			Total:    result.Total,
			Page:     result.PageParams.GetPage(),
			NextPage: result.NextPage(),
		},
	}})
}
