package models

import (
	"bytes"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BestSellerLimit is how many products the best-seller ranking returns.
const BestSellerLimit = 5

// SalesTally is the total quantity of one product sold across delivered orders.
type SalesTally struct {
	ProductID primitive.ObjectID `bson:"_id" json:"productId"`
	TotalSold int                `bson:"total_sold" json:"totalSold"`
}

// TallySales groups the line items of delivered orders by product, sums the
// quantities and returns the top limit entries. Equal totals are ordered by
// the lower product id first.
func TallySales(orders []Order, limit int) []SalesTally {
	totals := make(map[primitive.ObjectID]int)
	for _, o := range orders {
		if o.Status != StatusDelivered {
			continue
		}
		for _, item := range o.Items {
			totals[item.ProductID] += item.Quantity
		}
	}

	tallies := make([]SalesTally, 0, len(totals))
	for id, n := range totals {
		tallies = append(tallies, SalesTally{ProductID: id, TotalSold: n})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].TotalSold != tallies[j].TotalSold {
			return tallies[i].TotalSold > tallies[j].TotalSold
		}
		return bytes.Compare(tallies[i].ProductID[:], tallies[j].ProductID[:]) < 0
	})
	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}
	return tallies
}
