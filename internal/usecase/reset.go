package usecase

import (
	"fmt"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// ResetUseCase clears the persisted index so a full re-ingestion can
// repopulate it. Destructive and irreversible; there is no soft-delete tier.
type ResetUseCase struct {
	store port.VectorStore
}

func NewResetUseCase(store port.VectorStore) *ResetUseCase {
	return &ResetUseCase{store: store}
}

// Reset drops every index entry and verifies the store reports no IDs
// afterwards, retrying the drop once before giving up. It returns the
// number of entries destroyed for auditing.
func (u *ResetUseCase) Reset() (int, error) {
	destroyed, err := u.store.ResetAll()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrReset, err)
	}

	for attempt := 0; ; attempt++ {
		ids, err := u.store.ExistingIDs()
		if err != nil {
			return destroyed, fmt.Errorf("%w: post-condition check: %v", domain.ErrReset, err)
		}
		if len(ids) == 0 {
			return destroyed, nil
		}
		if attempt >= 1 {
			return destroyed, fmt.Errorf("%w: %d entries survived reset", domain.ErrReset, len(ids))
		}

		more, err := u.store.ResetAll()
		if err != nil {
			return destroyed, fmt.Errorf("%w: retry: %v", domain.ErrReset, err)
		}
		destroyed += more
	}
}
