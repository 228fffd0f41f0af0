package filesystem

import (
	"context"
	"errors"
	"iter"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

var errMissingContinuation = errors.New("truncated listing without continuation token")

// Lister paginates prefix listings.
type Lister struct {
	store objectstore.Client
}

func NewLister(store objectstore.Client) *Lister {
	return &Lister{store: store}
}

// Objects lazily walks every object under prefix, fetching the next page only
// when the previous one has been consumed. Iteration stops at the first error.
func (l *Lister) Objects(ctx context.Context, prefix string) iter.Seq2[objectstore.Summary, error] {
	return func(yield func(objectstore.Summary, error) bool) {
		token := ""
		for {
			page, err := l.store.ListObjects(ctx, prefix, token)
			if err != nil {
				yield(objectstore.Summary{}, err)
				return
			}
			for _, obj := range page.Objects {
				if !yield(obj, nil) {
					return
				}
			}
			if !page.Truncated {
				return
			}
			if page.ContinuationToken == "" {
				yield(objectstore.Summary{}, errMissingContinuation)
				return
			}
			token = page.ContinuationToken
		}
	}
}

// All follows continuation tokens to exhaustion and returns every object in
// store order. Nothing is returned if any page fails.
func (l *Lister) All(ctx context.Context, prefix string) ([]objectstore.Summary, error) {
	var all []objectstore.Summary
	for obj, err := range l.Objects(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		all = append(all, obj)
	}
	return all, nil
}
