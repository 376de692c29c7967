package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is the delivery address attached to an order. It is stored as given.
type Address struct {
	FirstName string `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Street    string `bson:"street" json:"street"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state"`
	ZipCode   string `bson:"zipcode" json:"zipcode"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password,omitempty" json:"password,omitempty"`
	Role              string             `bson:"role" json:"role"`
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	VerificationToken string             `bson:"verification_token" json:"-"`
}
