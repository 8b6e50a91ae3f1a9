// Package mongo stores the audit log in MongoDB
// for deployments keeping audit history outside the primary database.
package mongo
