package project

import (
	"errors"

	"github.com/petervdpas/chuckide/internal/util"
)

var (
	ErrExists      = errors.New("file already exists")
	ErrEmptyName   = util.ErrEmptyFilename
	ErrInvalidName = util.ErrInvalidFilename
	ErrNotFound    = errors.New("file not found")
)
