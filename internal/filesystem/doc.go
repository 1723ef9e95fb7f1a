/*
Package filesystem provides filesystem operations with automatic retry for
NFS stale file handle errors.

Upload trees are frequently NFS mounts. ESTALE (errno 116) shows up when a
file handle is invalidated server-side and usually clears on the next
attempt, so StatWithRetry, OpenWithRetry and ReadDirWithRetry retry only that
error with capped exponential backoff. Every other error is returned
immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

Operation durations and retry outcomes are recorded in the metrics package,
labeled with the volume a VolumeResolver maps the path to.
*/
package filesystem
