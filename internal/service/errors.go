package service

import "errors"

var (
	// ErrEstimationFailed means the nutrition estimation service exhausted
	// all retry attempts or kept returning unparseable data
	ErrEstimationFailed = errors.New("nutrition estimation failed")

	// ErrIngestionFailed means one of the submitted items could not be
	// estimated or persisted; items before it remain persisted
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrIngestInFlight means a submission for the same user is already in
	// progress; concurrent submissions are rejected, not queued
	ErrIngestInFlight = errors.New("ingestion already in progress")

	// ErrStoreSync means the change-notification channel errored and the
	// log view is frozen at its last known state
	ErrStoreSync = errors.New("log store sync failed")
)
