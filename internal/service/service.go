package service

import (
	"errors"

	"github.com/szhou/travelog/internal/apperror"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
