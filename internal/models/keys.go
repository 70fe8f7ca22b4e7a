package models

import (
	"time"

	"github.com/google/uuid"
)

// Key/SetKey/ClearTimestamps let the generic store own id and timestamp
// assignment without reflection.

var zeroTime time.Time

func (u *User) Key() uuid.UUID      { return u.ID }
func (u *User) SetKey(id uuid.UUID) { u.ID = id }
func (u *User) ClearTimestamps() {
	u.CreatedAt, u.UpdatedAt, u.ImportedAt = zeroTime, zeroTime, nil
}

func (i *Instructor) Key() uuid.UUID      { return i.ID }
func (i *Instructor) SetKey(id uuid.UUID) { i.ID = id }
func (i *Instructor) ClearTimestamps() {
	i.CreatedAt, i.UpdatedAt, i.ImportedAt = zeroTime, zeroTime, nil
}

func (p *BlogPost) Key() uuid.UUID      { return p.ID }
func (p *BlogPost) SetKey(id uuid.UUID) { p.ID = id }
func (p *BlogPost) ClearTimestamps() {
	p.CreatedAt, p.UpdatedAt, p.ImportedAt = zeroTime, zeroTime, nil
}

func (p *Product) Key() uuid.UUID      { return p.ID }
func (p *Product) SetKey(id uuid.UUID) { p.ID = id }
func (p *Product) ClearTimestamps() {
	p.CreatedAt, p.UpdatedAt, p.ImportedAt = zeroTime, zeroTime, nil
}

func (c *Category) Key() uuid.UUID      { return c.ID }
func (c *Category) SetKey(id uuid.UUID) { c.ID = id }
func (c *Category) ClearTimestamps() {
	c.CreatedAt, c.UpdatedAt, c.ImportedAt = zeroTime, zeroTime, nil
}

func (o *Order) Key() uuid.UUID      { return o.ID }
func (o *Order) SetKey(id uuid.UUID) { o.ID = id }
func (o *Order) ClearTimestamps() {
	o.CreatedAt, o.UpdatedAt, o.ImportedAt = zeroTime, zeroTime, nil
}

func (g *GalleryItem) Key() uuid.UUID      { return g.ID }
func (g *GalleryItem) SetKey(id uuid.UUID) { g.ID = id }
func (g *GalleryItem) ClearTimestamps() {
	g.CreatedAt, g.UpdatedAt, g.ImportedAt = zeroTime, zeroTime, nil
}

func (r *Review) Key() uuid.UUID      { return r.ID }
func (r *Review) SetKey(id uuid.UUID) { r.ID = id }
func (r *Review) ClearTimestamps() {
	r.CreatedAt, r.UpdatedAt, r.ImportedAt = zeroTime, zeroTime, nil
}
