package service

import "context"

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Segments() SegmentRepository
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// IngestionLocker serializes ingestion runs across processes sharing a store.
type IngestionLocker interface {
	WithIngestionLock(ctx context.Context, fn func(ctx context.Context) error) error
}
