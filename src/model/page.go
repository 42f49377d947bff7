package model

// Page is the envelope of every list response.
// Count is the total number of matching items, independent of the page size.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
