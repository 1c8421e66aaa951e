// Package events fans committed activities out to several publishers.
package events

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Multi publishes to every non-nil publisher in order. All publishers are
// tried; their errors are joined.
func Multi(publishers ...ledger.Publisher) ledger.Publisher {
	var out multi
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type multi []ledger.Publisher

func (m multi) Publish(ctx context.Context, activity *models.Activity) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, activity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
