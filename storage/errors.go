package storage

import "errors"

var ErrItemNotFound = errors.New("item not found in storage")
var ErrItemWithIDAlreadyExists = errors.New("item with the same ID already exists")
var ErrVersionConflict = errors.New("item was modified since it was read")
