// Package storage archives session snapshots and exported reports in object
// storage.
//
// It wraps the MinIO Go client behind the Client interface so the archive can
// target AWS S3 or a self-hosted MinIO instance, and so tests can use the
// mock in core/storage/mocks.
//
// # Archive Layout
//
// Objects are stored under <prefix>/<session id>/<file name>. Snapshot files
// are named <report>_PROGRESO_<timestamp>.json, so listing a session returns
// its snapshots in chronological order and Prune can drop the oldest ones.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archiver := storage.NewArchiver(client, cfg.Storage.Bucket, cfg.Storage.Prefix, logger)
//	key, err := archiver.Upload(ctx, sess.ID(), "progress/reporte_PROGRESO_20240105_101500.json")
package storage
