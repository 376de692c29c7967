package services

import "storefront/models"

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// normalizePage applies the default and maximum page size.
func normalizePage(p models.Page) models.Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
