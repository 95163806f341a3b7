// Package domain holds the Item entity, its validation rules and the query
// model shared by every storage backend.
package domain
