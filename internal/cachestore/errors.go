package cachestore

import "errors"

var errObjectNotFound = errors.New("cache object not found")
