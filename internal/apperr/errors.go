package apperr

import "errors"

var (
	ErrCollision        = errors.New("name collision")
	ErrRename           = errors.New("rename failed")
	ErrEncoding         = errors.New("document is not valid UTF-8")
	ErrNotDirectory     = errors.New("not a directory")
	ErrLedgerInsideRoot = errors.New("ledger must live outside the corpus root")
)
