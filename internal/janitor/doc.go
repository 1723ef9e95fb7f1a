// Package janitor removes cached thumbnails whose file record no longer
// exists. Removing a file from the upload tree leaves its record and
// thumbnail behind; once a later scan drops the record, the thumbnail is an
// orphan that only the janitor reclaims.
//
// A [Janitor] runs [Janitor.Sweep] on a gocron schedule in singleton mode, so
// a slow sweep delays the next run instead of overlapping it. Thumbnails
// younger than Config.MinAge are left alone because their record may not be
// committed yet.
package janitor
