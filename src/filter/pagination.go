package filter

import (
	"errors"
	"net/url"
	"strconv"

	"gorm.io/gorm"
)

// PageParam is the query key holding the 1-based page number.
const PageParam = "page"

// DefaultPageSize is used when the server is not configured otherwise.
const DefaultPageSize = 10

// ErrInvalidPage is returned for page numbers that are malformed or past the last page.
var ErrInvalidPage = errors.New("invalid page")

// Pagination selects one page of a result set.
type Pagination struct {
	Number int
	Size   int
}

// ParsePage reads the page number from values. size is the fixed server page size.
func ParsePage(values url.Values, size int) (Pagination, error) {
	if size <= 0 {
		size = DefaultPageSize
	}

	p := Pagination{Number: 1, Size: size}
	raw := values.Get(PageParam)
	if raw == "" || raw == "last" {
		// "last" is resolved by the caller once the count is known.
		if raw == "last" {
			p.Number = -1
		}
		return p, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return Pagination{}, ErrInvalidPage
	}
	p.Number = n
	return p, nil
}

// Offset returns the number of rows skipped before this page.
func (p Pagination) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Resolve fixes a "last" page against count and checks the page exists.
// The first page always exists, even for an empty result.
func (p Pagination) Resolve(count int64) (Pagination, error) {
	if p.Number == -1 {
		p.Number = p.lastPage(count)
	}
	if p.Number > 1 && int64(p.Offset()) >= count {
		return Pagination{}, ErrInvalidPage
	}
	return p, nil
}

func (p Pagination) lastPage(count int64) int {
	if count == 0 {
		return 1
	}
	return int((count + int64(p.Size) - 1) / int64(p.Size))
}

// Apply adds LIMIT/OFFSET to db.
func (p Pagination) Apply(db *gorm.DB) *gorm.DB {
	db = db.Limit(p.Size)
	if off := p.Offset(); off > 0 {
		db = db.Offset(off)
	}
	return db
}

// Links builds the next and previous page URLs from the request URL u.
func (p Pagination) Links(u *url.URL, count int64) (next, previous *string) {
	if int64(p.Offset()+p.Size) < count {
		next = pageURL(u, p.Number+1)
	}
	if p.Number > 1 {
		previous = pageURL(u, p.Number-1)
	}
	return next, previous
}

func pageURL(u *url.URL, number int) *string {
	clone := *u
	q := clone.Query()
	if number <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(number))
	}
	clone.RawQuery = q.Encode()
	s := clone.String()
	return &s
}
