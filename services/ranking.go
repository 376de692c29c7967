package services

import (
	"context"

	"storefront/models"
	"storefront/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RankedProduct is one best-seller slot. Product is nil when the product no
// longer exists in the catalog.
type RankedProduct struct {
	ProductID primitive.ObjectID `json:"productId"`
	TotalSold int                `json:"totalSold"`
	Product   *models.Product    `json:"product"`
}

// RankingEngine ranks products by quantity sold across delivered orders.
type RankingEngine struct {
	orders   repository.OrderStore
	products repository.ProductStore
	limit    int
}

func NewRankingEngine(stores repository.Stores) *RankingEngine {
	return &RankingEngine{
		orders:   stores.Orders,
		products: stores.Products,
		limit:    models.BestSellerLimit,
	}
}

// Rankings returns the top sellers resolved against the live catalog. Payment
// confirmation is not required; only the Delivered status counts.
func (r *RankingEngine) Rankings(ctx context.Context) ([]RankedProduct, error) {
	tallies, err := r.orders.TopSelling(ctx, r.limit)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(tallies))
	for i, t := range tallies {
		ids[i] = t.ProductID
	}
	found, err := r.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedProduct, len(tallies))
	for i, t := range tallies {
		ranked[i] = RankedProduct{ProductID: t.ProductID, TotalSold: t.TotalSold, Product: found[t.ProductID]}
	}
	return ranked, nil
}

// BestSellers returns the ranked products in order, keeping nil holes for
// products missing from the catalog.
func (r *RankingEngine) BestSellers(ctx context.Context) ([]*models.Product, error) {
	ranked, err := r.Rankings(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]*models.Product, len(ranked))
	for i, rp := range ranked {
		products[i] = rp.Product
	}
	return products, nil
}
