package storage

import (
	"context"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
)

// InlineBlobStore keeps the binary in the version row's blob column. Save
// and Delete are pass-throughs; the relational row is the real storage.
type InlineBlobStore struct{}

func NewInlineBlobStore() *InlineBlobStore {
	return &InlineBlobStore{}
}

func (s *InlineBlobStore) Save(ctx context.Context, key Key, content []byte) (Locator, error) {
	return InlineLocator(), nil
}

func (s *InlineBlobStore) Read(ctx context.Context, locator Locator, inlineBytes []byte) ([]byte, error) {
	if len(inlineBytes) == 0 {
		return nil, &ce.DaoError{
			Message:   "Version row carries an inline locator but no blob",
			Corrupted: true,
		}
	}
	return inlineBytes, nil
}

func (s *InlineBlobStore) Delete(ctx context.Context, locator Locator) error {
	return nil
}
