package services

import "errors"

var (
	// Location access was refused; tracking stays idle until re-triggered.
	ErrPermissionDenied = errors.New("location permission denied")
	// Route or collection query failed; affected state defaults to empty.
	ErrStoreRead = errors.New("store read failed")
	// Collection append failed; in-memory state is left unchanged.
	ErrStoreWrite = errors.New("store write failed")
	// Malformed "HH:MM" value in route data.
	ErrParse = errors.New("malformed time value")

	ErrEntryNotFound      = errors.New("schedule entry not found")
	ErrAlreadyCollected   = errors.New("area already collected today")
	ErrCollectionInFlight = errors.New("collection already in progress for area")
	ErrNoSchedule         = errors.New("no schedule for collector")
)

// ErrNoSession is returned for collectors that are not logged in.
var ErrNoSession = errors.New("no active session for collector")
