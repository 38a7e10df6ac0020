package responder

import "context"

// Repository loads responder definitions from the store. A loaded
// Responder already carries its merged document list.
type Repository interface {
	ListProduction(ctx context.Context) ([]*Responder, error)
	FindByID(ctx context.Context, id string) (*Responder, error)
}
