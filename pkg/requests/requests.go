// Package requests holds one value type per service endpoint. Each satisfies
// api.Request for its result type and can be executed any number of times.
package requests

import (
	"net/url"
	"strconv"

	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	methodGet    = "GET"
	methodPost   = "POST"
	methodPatch  = "PATCH"
	methodDelete = "DELETE"
)

// Page selects a page of a listing. Zero fields are left to the service.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) url(path string) string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func seg(id string) string {
	return url.PathEscape(id)
}

// Empty is the result of requests whose success carries no payload.
type Empty struct{}

func parseList[T any](payload gjson.Result, key string, parse func(gjson.Result) (T, error)) ([]T, error) {
	items, err := wire.OptArray(payload, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := parse(item)
		if err != nil {
			return nil, errors.Wrapf(err, "%s[%d]", key, i)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseOne[T any](payload gjson.Result, key string, parse func(gjson.Result) (T, error)) (T, error) {
	node, err := wire.ObjectAt(payload, key)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := parse(node)
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, key)
	}
	return v, nil
}
