// Package fsstore implements storage.MarkerStore and storage.LockStore on the
// local filesystem.
//
// Markers are sidecar files colocated with their source:
//
//	/data/report.pdf
//	/data/.report.pdf.sluice   <- JSON marker
//
// The run lock is a single file per directory, /data/.sluice.lock, holding the
// owner token, process details, start time and last heartbeat.
//
// Every mutation is atomic at the filesystem level. Markers and heartbeats are
// written to a temporary file and renamed into place. The lock is created with
// O_CREATE|O_EXCL so exactly one process can hold it; stale locks are renamed
// aside before being re-created, so concurrent reclaimers cannot both win.
package fsstore
