package services

import (
	"errors"

	"github.com/clinivault/screenauth/internal/common"
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}

func isDuplicateEmail(err error) bool {
	return errors.Is(err, common.ErrorDuplicateEmail)
}
