package utils

import "errors"

// ----------------- storage ------------------
var (
	ErrStorageEmptyHostName       = errors.New("host name is empty")
	ErrStorageInvalidPortNumber   = errors.New("port number is empty")
	ErrStorageEmptyUsername       = errors.New("username is empty")
	ErrStorageEmptyPassword       = errors.New("password is empty")
	ErrStorageInvalidDatabaseName = errors.New("database name is empty")
	ErrStorageInvalidSslMode      = errors.New("SSL mode is invalid")
	ErrStorageInvalidPoolSize     = errors.New("pool size is invalid")
	ErrStorageInvalidTimeout      = errors.New("timeout is invalid")
)

// ----------------- push service ------------------
var (
	ErrInvalidProductId       = errors.New("invalid product id")
	ErrProductNotFound        = errors.New("product not found")
	ErrStoreNotConfigured     = errors.New("store connection is not configured")
	ErrPushInProgress         = errors.New("push already in progress for this product")
	ErrNoAutoVariant          = errors.New("product creation returned no variants")
	ErrVariantCountMismatch   = errors.New("created variants do not match source descriptors")
	ErrNoFulfillmentLocation  = errors.New("no fulfillment location found for store")
	ErrCacheMiss              = errors.New("cache miss")
)
