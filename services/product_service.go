package services

import (
	"context"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

type ProductCatalog interface {
	ProductLookup
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	List(ctx context.Context, page, limit int) ([]models.Product, int, error)
}

type ProductService struct {
	products ProductCatalog
}

func NewProductService(products ProductCatalog) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.products.GetAllCategories(ctx)
}

func (s *ProductService) GetAllProducts(ctx context.Context, page, limit int) ([]models.Product, int, error) {
	page, limit = normalizePage(page, limit)
	return s.products.List(ctx, page, limit)
}

func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}
