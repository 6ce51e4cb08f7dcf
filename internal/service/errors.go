package service

import (
	"codequiz/internal/model"
	"errors"
	"fmt"
)

// storageErr tags a backend error with model.ErrStorage, keeping
// model.ErrNotFound untouched so callers can tell the two apart
func storageErr(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err)
}
