package storage

import (
	"context"

	"cml-linkmap/models"
)

// LinkWriter is the interface any link sink must satisfy.
type LinkWriter interface {
	Write(ctx context.Context, links []*models.LinkRecord) error
	Close() error
}
