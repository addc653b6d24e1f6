package storage

import "errors"

var ErrNotFound = errors.New("item not found in storage")
var ErrCodeAlreadyExists = errors.New("judge with the same secret code already exists")
