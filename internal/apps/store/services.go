package store

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNameRequired        = errors.New("name is required")
	ErrSlugRequired        = errors.New("slug is required")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

type StoreService struct {
	db *gorm.DB
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{db: db}
}

// --- Catalog ---

func (s *StoreService) ListCategories() ([]ProductCategory, error) {
	var categories []ProductCategory
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *StoreService) ListProducts(categorySlug, search string, limit, offset int) (*ProductsListResponse, error) {
	query := s.db.Model(&Product{}).Where("is_active = ?", true)

	if categorySlug != "" {
		var category ProductCategory
		if err := s.db.First(&category, "slug = ?", categorySlug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		query = query.Where("category_id = ?", category.ID)
	}
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var products []Product
	if err := query.Preload("Category").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&products).Error; err != nil {
		return nil, err
	}

	return &ProductsListResponse{Products: products, Total: total}, nil
}

func (s *StoreService) GetProductBySlug(slug string) (*Product, error) {
	var product Product
	err := s.db.Preload("Category").
		First(&product, "slug = ? AND is_active = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// --- Cart ---

func (s *StoreService) ListCart(userID uuid.UUID) ([]CartItem, error) {
	var items []CartItem
	err := s.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the quantity when the product is already carted.
func (s *StoreService) AddToCart(userID uuid.UUID, req *CartAddRequest) (*CartItem, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var product Product
	if err := s.db.First(&product, "id = ? AND is_active = ?", req.ProductID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var item CartItem
	err := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
		if item.Quantity > product.StockQuantity {
			return nil, ErrInsufficientStock
		}
		if err := s.db.Save(&item).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Quantity > product.StockQuantity {
			return nil, ErrInsufficientStock
		}
		item = CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	item.Product = &product
	return &item, nil
}

func (s *StoreService) UpdateCartItem(userID, itemID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var item CartItem
	err := s.db.Preload("Product").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if item.Product != nil && quantity > item.Product.StockQuantity {
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.db.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *StoreService) RemoveCartItem(userID, itemID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// --- Checkout and orders ---

// Checkout converts the cart into an order inside one transaction. Stock
// is decremented with a guarded UPDATE so concurrent checkouts cannot
// oversell.
func (s *StoreService) Checkout(userID uuid.UUID, req *CheckoutRequest) (*StoreOrder, error) {
	var order StoreOrder

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var items []CartItem
		if err := tx.Preload("Product").
			Where("user_id = ?", userID).
			Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		order = StoreOrder{
			UserID:          userID,
			Status:          OrderPending,
			TotalAmount:     CartTotal(items),
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, item := range items {
			if item.Product == nil {
				return ErrProductNotFound
			}
			result := tx.Model(&Product{}).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			orderItem := StoreOrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(userID, order.ID)
}

func (s *StoreService) GetOrder(userID, orderID uuid.UUID) (*StoreOrder, error) {
	var order StoreOrder
	err := s.db.Preload("Items").Preload("Items.Product").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *StoreService) ListOrders(userID uuid.UUID, limit, offset int) ([]StoreOrder, error) {
	var orders []StoreOrder
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder is only allowed while the order is still pending.
func (s *StoreService) CancelOrder(userID, orderID uuid.UUID) (*StoreOrder, error) {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != OrderPending {
		return nil, ErrOrderNotCancellable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", OrderCancelled).Error; err != nil {
			return err
		}
		// Return the reserved stock.
		for _, item := range order.Items {
			if err := tx.Model(&Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = OrderCancelled
	return order, nil
}

// CartTotal sums the line totals of the given cart items.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// --- Admin catalog management ---

func (s *StoreService) CreateCategory(req *CategoryRequest) (*ProductCategory, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	category := ProductCategory{
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *StoreService) UpdateCategory(categoryID uuid.UUID, req *CategoryRequest) (*ProductCategory, error) {
	var category ProductCategory
	if err := s.db.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	category.Name = strings.TrimSpace(req.Name)
	category.Slug = strings.TrimSpace(req.Slug)
	category.Description = req.Description
	category.ImageURL = req.ImageURL
	if err := s.db.Save(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *StoreService) DeleteCategory(categoryID uuid.UUID) error {
	result := s.db.Delete(&ProductCategory{}, "id = ?", categoryID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *StoreService) CreateProduct(req *ProductRequest) (*Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	product := Product{
		CategoryID:    req.CategoryID,
		Name:          strings.TrimSpace(req.Name),
		Slug:          strings.TrimSpace(req.Slug),
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive,
	}
	if err := s.db.Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *StoreService) UpdateProduct(productID uuid.UUID, req *ProductRequest) (*Product, error) {
	var product Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	product.CategoryID = req.CategoryID
	product.Name = strings.TrimSpace(req.Name)
	product.Slug = strings.TrimSpace(req.Slug)
	product.Description = req.Description
	product.Price = req.Price
	product.StockQuantity = req.StockQuantity
	product.ImageURL = req.ImageURL
	product.IsActive = req.IsActive
	if err := s.db.Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *StoreService) DeleteProduct(productID uuid.UUID) error {
	result := s.db.Delete(&Product{}, "id = ?", productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
