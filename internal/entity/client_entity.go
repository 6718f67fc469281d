package entity

import "time"

type Client struct {
	Id          uint
	WorkspaceId uint
	Sequence    int
	Name        string
	Email       string
	Phone       string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
