package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"banco-precos/internal/domain"
	"banco-precos/internal/repository"
)

// MinSearchTermLength is the shortest description fragment accepted by Search
const MinSearchTermLength = 3

var (
	ErrSearchTermTooShort = errors.New("search term must have at least 3 characters")
	ErrProductNotFound    = errors.New("product not found")
)

// ProductService defines the interface for product lookups
type ProductService interface {
	Search(ctx context.Context, term string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type productService struct {
	products repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository) ProductService {
	return &productService{products: products}
}

// Search returns the products whose description contains term
func (s *productService) Search(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchTermLength {
		return nil, ErrSearchTermTooShort
	}
	return s.products.SearchProducts(ctx, term), nil
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product := s.products.GetProduct(ctx, strings.TrimSpace(id))
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}
