package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/models"
	"storefront/repository"
	"storefront/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductController handles product-related requests
type ProductController struct {
	Products repository.ProductStore
	Ranking  *services.RankingEngine
	Timeout  time.Duration
	Log      *logrus.Logger
}

// NewProductController creates a new ProductController
func NewProductController(products repository.ProductStore, ranking *services.RankingEngine, timeout time.Duration, logger *logrus.Logger) *ProductController {
	return &ProductController{
		Products: products,
		Ranking:  ranking,
		Timeout:  timeout,
		Log:      logger,
	}
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return models.Invalid("Product name is required")
	}
	if p.Price <= 0 {
		return models.Invalid("Product price must be positive")
	}
	if strings.TrimSpace(p.Category) == "" {
		return models.Invalid("Product category is required")
	}
	return nil
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := decodeBody(r, &product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	if err := validateProduct(&product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	product.ID = primitive.NilObjectID
	product.CreatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	if err := pc.Products.Create(ctx, &product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Product Added", "product": product})
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	products, err := pc.Products.List(ctx)
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ok(w, envelope{"products": products})
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID("product", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	product, err := pc.Products.Get(ctx, id)
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ok(w, envelope{"product": product})
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID("product", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	var product models.Product
	if err := decodeBody(r, &product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	if err := validateProduct(&product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	product.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	if err := pc.Products.Update(ctx, &product); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ok(w, envelope{"message": "Product Updated"})
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID("product", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	if err := pc.Products.Delete(ctx, id); err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ok(w, envelope{"message": "Product Removed"})
}

// BestSellers returns the top sellers across delivered orders. Entries for
// products removed from the catalog are null.
func (pc *ProductController) BestSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()

	products, err := pc.Ranking.BestSellers(ctx)
	if err != nil {
		writeError(w, pc.Log, err)
		return
	}
	ok(w, envelope{"bestSellers": products})
}
