// Package store persists classified devices in SQLite.
//
// A Store owns exactly one database connection shared by every worker.
// Opening a Store drops and recreates the devices table:
//
//	devices(hostname, vendor, os, protocol)
//
// Workers write through their own Cursor. Each Insert is a complete
// transaction executed under the Store's mutex.
package store
