package service

import (
	"context"
	"errors"
	"strings"

	"backend/internal/costing"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type VariantRequest struct {
	Name             string          `json:"name" binding:"required"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base" binding:"required"`
	SellPrice        decimal.Decimal `json:"sell_price"`
}

type CreateProductRequest struct {
	SKU      string           `json:"sku" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	BaseUnit string           `json:"base_unit" binding:"required"`
	MinStock decimal.Decimal  `json:"min_stock"`
	Variants []VariantRequest `json:"variants" binding:"omitempty,dive"`
	UserID   string           `json:"user_id"`
}

type UpdateProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	MinStock decimal.Decimal `json:"min_stock"`
	UserID   string          `json:"user_id"`
}

type AddVariantRequest struct {
	VariantRequest
	UserID string `json:"user_id"`
}

type ProductService interface {
	Create(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, userID, id string, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, userID, id string) error
	AddVariant(ctx context.Context, userID, productID string, req AddVariantRequest) (*model.ProductVariant, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
}

type productService struct {
	products  repository.ProductRepository
	variants  repository.VariantRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewProductService(
	products repository.ProductRepository,
	variants repository.VariantRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		products:  products,
		variants:  variants,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// Create registers a product together with its selling units. A base variant
// with factor 1 is always present; one is synthesized from the base unit when
// the request does not name it.
func (s *productService) Create(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.MinStock.IsNegative() {
		return nil, apperror.Validation("min_stock must not be negative")
	}
	for _, v := range req.Variants {
		if !v.ConversionToBase.IsPositive() {
			return nil, apperror.Validation("conversion_to_base must be greater than zero")
		}
		if v.SellPrice.IsNegative() {
			return nil, apperror.Validation("sell_price must not be negative")
		}
	}

	sku := strings.TrimSpace(req.SKU)

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.products.FindBySKU(txCtx, sku); findErr == nil {
			return apperror.Newf(apperror.KindConflict, "sku %q already exists", sku)
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperror.Wrap(findErr, apperror.KindInternal, "failed to check sku")
		}

		product = &model.Product{
			SKU:      sku,
			Name:     req.Name,
			BaseUnit: req.BaseUnit,
			MinStock: costing.RoundStock(req.MinStock),
		}
		if createErr := s.products.Create(txCtx, product); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to create product")
		}

		hasBase := false
		for _, v := range req.Variants {
			variant := model.ProductVariant{
				ProductID:        product.ID,
				Name:             v.Name,
				ConversionToBase: costing.RoundStock(v.ConversionToBase),
				SellPrice:        costing.RoundMoney(v.SellPrice),
				IsBase:           v.ConversionToBase.Equal(decimal.NewFromInt(1)),
			}
			if variant.IsBase {
				hasBase = true
			}
			if createErr := s.variants.Create(txCtx, &variant); createErr != nil {
				return apperror.Wrap(createErr, apperror.KindInternal, "failed to create variant")
			}
			product.Variants = append(product.Variants, variant)
		}
		if !hasBase {
			base := model.ProductVariant{
				ProductID:        product.ID,
				Name:             req.BaseUnit,
				ConversionToBase: decimal.NewFromInt(1),
				IsBase:           true,
			}
			if createErr := s.variants.Create(txCtx, &base); createErr != nil {
				return apperror.Wrap(createErr, apperror.KindInternal, "failed to create base variant")
			}
			product.Variants = append(product.Variants, base)
		}

		return writeAudit(txCtx, s.auditRepo, uid, model.ActionCreateProduct, product.ID.String(), sku, req)
	})

	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, userID, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.MinStock.IsNegative() {
		return nil, apperror.Validation("min_stock must not be negative")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		product, findErr = s.products.FindByID(txCtx, productID)
		if findErr != nil {
			return notFoundOr(findErr, "product not found")
		}

		product.Name = req.Name
		product.MinStock = costing.RoundStock(req.MinStock)
		if updateErr := s.products.Update(txCtx, product); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update product")
		}

		return writeAudit(txCtx, s.auditRepo, uid, model.ActionUpdateProduct, product.ID.String(), product.SKU, req)
	})

	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete soft-deletes a product. Historic documents keep their snapshots so
// nothing downstream breaks.
func (s *productService) Delete(ctx context.Context, userID, id string) error {
	productID, err := parseUUID("id", id)
	if err != nil {
		return err
	}
	uid, err := parseOptionalUUID("user_id", userID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.products.FindByID(txCtx, productID)
		if findErr != nil {
			return notFoundOr(findErr, "product not found")
		}
		if deleteErr := s.products.Delete(txCtx, product.ID); deleteErr != nil {
			return apperror.Wrap(deleteErr, apperror.KindInternal, "failed to delete product")
		}
		return writeAudit(txCtx, s.auditRepo, uid, model.ActionDeleteProduct, product.ID.String(), product.SKU, nil)
	})
}

func (s *productService) AddVariant(ctx context.Context, userID, productID string, req AddVariantRequest) (*model.ProductVariant, error) {
	pid, err := parseUUID("product_id", productID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if !req.ConversionToBase.IsPositive() {
		return nil, apperror.Validation("conversion_to_base must be greater than zero")
	}
	if req.SellPrice.IsNegative() {
		return nil, apperror.Validation("sell_price must not be negative")
	}

	var variant *model.ProductVariant
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.products.FindByID(txCtx, pid)
		if findErr != nil {
			return notFoundOr(findErr, "product not found")
		}

		variant = &model.ProductVariant{
			ProductID:        product.ID,
			Name:             req.Name,
			ConversionToBase: costing.RoundStock(req.ConversionToBase),
			SellPrice:        costing.RoundMoney(req.SellPrice),
			IsBase:           req.ConversionToBase.Equal(decimal.NewFromInt(1)),
		}
		if createErr := s.variants.Create(txCtx, variant); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to create variant")
		}
		return writeAudit(txCtx, s.auditRepo, uid, model.ActionUpdateProduct, product.ID.String(), product.SKU, req)
	})

	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	productID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product not found")
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	products, total, err := s.products.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list products")
	}
	return products, total, nil
}
