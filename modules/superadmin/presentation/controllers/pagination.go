package controllers

import (
	"net/http"
	"strconv"

	"github.com/orderly-pos/orderly/pkg/serrors"
)

var errInvalidPagination = serrors.NewError("INVALID_PAGINATION", "limit and offset must be non-negative integers", "Errors.InvalidPagination")

type page struct {
	Limit  int
	Offset int
}

func parsePage(r *http.Request) (page, error) {
	var p page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return page{}, errInvalidPagination.WithTemplateData(map[string]string{name: raw})
		}
		*dst = v
	}
	return p, nil
}

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
