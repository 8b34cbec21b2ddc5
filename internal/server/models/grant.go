package models

import "time"

// FolderGrant records an active sharing grant: GranteeID may access
// FolderID owned by OwnerID. Any grant on a folder blocks lock creation.
type FolderGrant struct {
	ID        string
	FolderID  string
	OwnerID   string
	GranteeID string
	CreatedAt time.Time
}
