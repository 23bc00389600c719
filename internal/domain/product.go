package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
}

// ProductInput carries the client supplied fields for create and update.
// A nil field was absent from the request body.
type ProductInput struct {
	Name        *string  `json:"name" bson:"name,omitempty"`
	Description *string  `json:"description" bson:"description,omitempty"`
	Price       *float64 `json:"price" bson:"price,omitempty"`
}

// Apply overwrites all three fields of p with the input. Absent fields reset
// to their zero value.
func (in ProductInput) Apply(p *Product) {
	p.Name = ""
	if in.Name != nil {
		p.Name = *in.Name
	}
	p.Description = ""
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.Price = 0
	if in.Price != nil {
		p.Price = *in.Price
	}
}

// HasRequired reports whether name and price are both present.
func (in ProductInput) HasRequired() bool {
	return in.Name != nil && in.Price != nil
}
