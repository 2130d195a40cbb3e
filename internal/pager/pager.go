// Package pager drives token-linked remote listings to completion.
//
// A listing is described by a FetchFunc: given the continuation token from the
// previous page (nil for the first page) it returns that page's items and the
// token for the next page. A nil or empty next token ends the listing.
//
// SDK paginators (HasMorePages/NextPage) plug in through FromPaginator.
//
// The pager never retries. Callers that need retry semantics wrap the whole
// drain in a retry.Guard so a failed listing restarts from the first page.
package pager

import (
	"context"
	"iter"
)

// FetchFunc fetches a single page of T starting at token.
type FetchFunc[T any] func(ctx context.Context, token *string) (items []T, next *string, err error)

// Pages returns a lazy sequence over every page of the listing. Each step
// yields the page's items and a nil error; a failing fetch yields (nil, err)
// and ends the sequence. The context is checked before every fetch.
func Pages[T any](ctx context.Context, fetch FetchFunc[T]) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		var token *string
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			items, next, err := fetch(ctx, token)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) {
				return
			}
			if next == nil || *next == "" {
				return
			}
			token = next
		}
	}
}

// All drains every page and returns the concatenated items in page order.
// When a page fails, the items gathered before the failure are returned
// together with the error.
func All[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	var out []T
	for items, err := range Pages(ctx, fetch) {
		if err != nil {
			return out, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// Fold reduces every item of the listing into an accumulator. step receives
// the current accumulator by value and returns the next one. On error the
// accumulator reached so far is returned with the error; callers decide
// whether a partial fold is meaningful.
func Fold[T, A any](ctx context.Context, fetch FetchFunc[T], init A, step func(A, T) A) (A, error) {
	acc := init
	for items, err := range Pages(ctx, fetch) {
		if err != nil {
			return acc, err
		}
		for _, item := range items {
			acc = step(acc, item)
		}
	}
	return acc, nil
}

// Paginator is the method set shared by the AWS SDK's generated paginators.
// Opt is the service client's options type and O the page output type.
type Paginator[Opt, O any] interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*Opt)) (O, error)
}

// morePages is the opaque token FromPaginator hands back while the SDK
// paginator still has pages.
var morePages = "more"

// FromPaginator adapts an SDK paginator to a FetchFunc. The paginator keeps
// its own continuation token, so the token argument is ignored and the
// returned one only signals that another page exists. items extracts the
// page's records.
//
// Paginators are single-use: build a fresh one for every drain, including
// each retry attempt.
func FromPaginator[Opt, O, T any](p Paginator[Opt, O], items func(O) []T) FetchFunc[T] {
	return func(ctx context.Context, _ *string) ([]T, *string, error) {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !p.HasMorePages() {
			return items(page), nil, nil
		}
		return items(page), &morePages, nil
	}
}
