// Package identity derives the stable identifiers used as catalog keys and
// thumbnail cache names.
//
// A file is identified by the MD5 digest of its folder path and file name
// joined with "/", hex encoded. The same file always maps to the same
// identifier, so a rescan or a repeated upload event overwrites the existing
// record and reuses the cached thumbnail. Folders are keyed by [FolderID],
// which prefixes the folder path with "f:".
package identity
