package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Orders copy name and price at purchase time.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	SubCategory string             `bson:"sub_category" json:"subCategory"`
	Price       float64            `bson:"price" json:"price"`
	Sizes       []string           `bson:"sizes" json:"sizes"`
	Images      []string           `bson:"images" json:"image"`
	Bestseller  bool               `bson:"bestseller" json:"bestseller"`
	CreatedAt   time.Time          `bson:"created_at" json:"date"`
}
