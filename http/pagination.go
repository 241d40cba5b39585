package http

import (
	"context"
	"errors"
)

// ErrPageLimit is returned by All when the iterator stopped at its page limit
// while the remote service still reported more pages.
var ErrPageLimit = errors.New("page limit reached")

// PageFetcher is a function that fetches a page of items.
// Pages are numbered from 1, matching the GitHub and GitLab REST APIs.
// Returns the items, whether there are more pages, and any error.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// PageIterator provides iteration over paginated API results.
// It lazily fetches pages as needed.
type PageIterator[T any] struct {
	fetch    PageFetcher[T]
	page     int
	maxPages int // 0 means unlimited
	buffer   []T
	done     bool
	err      error
	fetched  int // Total items fetched so far
}

// NewPageIterator creates a new iterator with the given fetch function.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{
		fetch: fetch,
		page:  1,
	}
}

// WithMaxPages caps the number of pages fetched. A cap of zero or less means
// every page is fetched.
func (p *PageIterator[T]) WithMaxPages(n int) *PageIterator[T] {
	p.maxPages = n
	return p
}

// Next returns the next item from the iterator.
// Returns the item, true if an item was returned, and any error.
// When iteration is complete, returns (zero, false, nil).
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if p.err != nil {
		return zero, false, p.err
	}

	// Keep fetching while pages come back empty but claim more
	for len(p.buffer) == 0 && !p.done {
		if p.maxPages > 0 && p.page > p.maxPages {
			p.err = ErrPageLimit
			return zero, false, p.err
		}
		items, hasMore, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		p.done = !hasMore
		p.page++
	}

	if len(p.buffer) == 0 {
		return zero, false, nil
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.fetched++

	return item, true, nil
}

// All collects all items from the iterator into a slice.
// If the page limit is hit, the items gathered so far are returned together
// with ErrPageLimit so callers can decide whether a partial listing is usable.
func (p *PageIterator[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for {
		item, ok, err := p.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrPageLimit) {
				return all, err
			}
			return nil, err
		}
		if !ok {
			break
		}
		all = append(all, item)
	}
	return all, nil
}

// Err returns any error that occurred during iteration.
func (p *PageIterator[T]) Err() error {
	return p.err
}

// Fetched returns the number of items fetched so far.
func (p *PageIterator[T]) Fetched() int {
	return p.fetched
}
