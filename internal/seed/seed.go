// Package seed loads a demo catalog and a staff account for manual testing.
package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type AccountWriter interface {
	EnsureAccount(ctx context.Context, in customersvc.SignupInput, role domain.Role) (*domain.Customer, error)
}

// Admin describes the staff account created by Apply. An empty email skips it.
type Admin struct {
	Email    string
	Password string
	Role     domain.Role
}

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
	Image       string
}

var demoProducts = []productSeed{
	{
		SKU:         "SKU-DEMO-PHONE",
		Name:        "Điện thoại Demo X",
		Description: "Màn hình 6.1 inch, bộ nhớ 128GB",
		Price:       7990000,
		Stock:       25,
		Category:    "dien-thoai",
		Image:       "https://cdn.example.com/demo/phone.jpg",
	},
	{
		SKU:         "SKU-DEMO-CASE",
		Name:        "Ốp lưng Demo",
		Description: "Ốp silicon chống sốc",
		Price:       100000,
		Stock:       200,
		Category:    "phu-kien",
		Image:       "https://cdn.example.com/demo/case.jpg",
	},
	{
		SKU:         "SKU-DEMO-CHARGER",
		Name:        "Sạc nhanh 20W",
		Description: "Cổng USB-C, hỗ trợ sạc nhanh",
		Price:       390000,
		Stock:       3,
		Category:    "phu-kien",
	},
	{
		SKU:         "SKU-DEMO-EARBUDS",
		Name:        "Tai nghe không dây Demo",
		Description: "Hết hàng, dùng để thử trạng thái out of stock",
		Price:       1250000,
		Stock:       0,
		Category:    "am-thanh",
	},
}

// Apply upserts the demo catalog by SKU and ensures the staff account. It is
// safe to run repeatedly.
func Apply(ctx context.Context, products ProductWriter, accounts AccountWriter, admin Admin) error {
	for _, s := range demoProducts {
		attrs := map[string]interface{}{}
		if s.Image != "" {
			attrs["images"] = []string{s.Image}
		}
		_, err := products.Upsert(ctx, domain.Product{
			SKU:         s.SKU,
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			Stock:       s.Stock,
			Category:    s.Category,
			Attributes:  attrs,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", s.SKU, err)
		}
	}

	if admin.Email == "" {
		return nil
	}
	role := admin.Role
	if role == "" {
		role = domain.RoleAdmin
	}
	if _, err := accounts.EnsureAccount(ctx, customersvc.SignupInput{
		Email:    admin.Email,
		Password: admin.Password,
		FullName: "Storefront Admin",
	}, role); err != nil {
		return fmt.Errorf("ensure admin %s: %w", admin.Email, err)
	}
	return nil
}
