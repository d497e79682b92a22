package model

import "time"

type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin_id"`
	// CreatedAt is the store's server timestamp, parsed on read.
	CreatedAt time.Time `json:"created_at"`
}

func (h *Household) Clone() *Household {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}
