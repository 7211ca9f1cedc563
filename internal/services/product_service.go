package services

import (
	"context"

	"pricewatch/internal/domain"
	"pricewatch/internal/repos"
)

type ProductService struct {
	Products *repos.ProductRepo
	History  *repos.HistoryRepo
}

func NewProductService(products *repos.ProductRepo, history *repos.HistoryRepo) *ProductService {
	return &ProductService{Products: products, History: history}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Products.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.Products.Get(ctx, id)
}

func (s *ProductService) PriceHistory(ctx context.Context, id string, limit int) ([]domain.PriceSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.History.Recent(ctx, id, limit)
}
