// Package history carries file lifecycle events from the watcher to the
// history log.
//
// Publisher implements ingest.History by publishing a sonic-encoded Envelope
// on a watermill topic per event kind. Recorder subscribes to those topics
// and appends each event to the database. The default bus is an in-process
// gochannel; any watermill publisher/subscriber pair works.
package history
