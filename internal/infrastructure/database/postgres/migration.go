// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/domain/cart"
	"github.com/your-org/pcstore-backend/internal/domain/catalog"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/order"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{db: db, log: log}
}

// models lists every persisted type in dependency order
func models() []interface{} {
	return []interface{}{
		// Catalog
		&catalog.Product{},
		&catalog.ProductImage{},

		// PC builds
		&pcbuild.Build{},
		&pcbuild.Component{},

		// Carts
		&cart.Record{},
		&cart.LineRecord{},

		// Checkout and orders
		&checkout.Session{},
		&order.Order{},
		&order.StatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for the hot read paths
func (m *Migration) CreateIndexes() error {
	m.log.Info("Creating additional database indexes")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_images_product_sort ON product_images(product_id, sort_order)",

		// Build indexes
		"CREATE INDEX IF NOT EXISTS idx_pc_builds_public_created ON pc_builds(is_public, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_pc_build_components_build ON pc_build_components(build_id, id)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_lines_cart_position ON cart_lines(cart_id, position)",

		// Checkout indexes
		"CREATE INDEX IF NOT EXISTS idx_checkout_sessions_user_created ON checkout_sessions(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_checkout_sessions_open ON checkout_sessions(payment_state) WHERE finalization_state = 'open'",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_delivery_state ON orders(delivery_state)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("sql", indexSQL).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": successCount,
		"failed":  failCount,
	}).Info("Index creation finished")
	return nil
}

// SeedInitialData inserts a small development catalog and one public build
func (m *Migration) SeedInitialData() error {
	m.log.Info("Seeding initial data")

	products, err := m.seedComponents()
	if err != nil {
		return fmt.Errorf("failed to seed components: %w", err)
	}

	if err := m.seedStarterBuild(products); err != nil {
		return fmt.Errorf("failed to seed starter build: %w", err)
	}

	m.log.Info("Initial data seeded")
	return nil
}

type seedProduct struct {
	product catalog.Product
	image   string
}

// seedComponents creates one product per build slot, keyed by SKU
func (m *Migration) seedComponents() (map[string]catalog.Product, error) {
	seeds := []seedProduct{
		{catalog.Product{SKU: "PC-CPU-7800X3D", Name: "AMD Ryzen 7 7800X3D", Category: pcbuild.CategoryCPU, Brand: "AMD", Price: decimal.NewFromInt(36999), CountInStock: 12,
			Description: "8-core desktop processor with 3D V-Cache"}, "https://cdn.pcstore.local/img/cpu-7800x3d.jpg"},
		{catalog.Product{SKU: "PC-MB-B650", Name: "MSI B650 Tomahawk WiFi", Category: pcbuild.CategoryMotherboard, Brand: "MSI", Price: decimal.NewFromInt(21999), CountInStock: 8,
			Description: "AM5 ATX motherboard with PCIe 5.0 M.2"}, "https://cdn.pcstore.local/img/mb-b650.jpg"},
		{catalog.Product{SKU: "PC-RAM-32D5", Name: "Corsair Vengeance 32GB DDR5-6000", Category: pcbuild.CategoryRAM, Brand: "Corsair", Price: decimal.NewFromInt(10499), CountInStock: 30,
			Description: "2x16GB DDR5 kit"}, "https://cdn.pcstore.local/img/ram-32d5.jpg"},
		{catalog.Product{SKU: "PC-GPU-4070S", Name: "NVIDIA GeForce RTX 4070 Super", Category: pcbuild.CategoryGPU, Brand: "NVIDIA", Price: decimal.NewFromInt(62999), CountInStock: 5,
			Description: "12GB GDDR6X graphics card"}, "https://cdn.pcstore.local/img/gpu-4070s.jpg"},
		{catalog.Product{SKU: "PC-SSD-2TB", Name: "Samsung 990 Pro 2TB", Category: pcbuild.CategoryStorage, Brand: "Samsung", Price: decimal.NewFromInt(16999), CountInStock: 20,
			Description: "PCIe 4.0 NVMe SSD"}, "https://cdn.pcstore.local/img/ssd-2tb.jpg"},
		{catalog.Product{SKU: "PC-PSU-850", Name: "Corsair RM850e", Category: pcbuild.CategoryPSU, Brand: "Corsair", Price: decimal.NewFromInt(10999), CountInStock: 15,
			Description: "850W 80+ Gold modular power supply"}, "https://cdn.pcstore.local/img/psu-850.jpg"},
		{catalog.Product{SKU: "PC-CASE-4000D", Name: "Corsair 4000D Airflow", Category: pcbuild.CategoryCase, Brand: "Corsair", Price: decimal.NewFromInt(8499), CountInStock: 10,
			Description: "Mid-tower ATX case"}, "https://cdn.pcstore.local/img/case-4000d.jpg"},
	}

	created := make(map[string]catalog.Product, len(seeds))
	for _, seed := range seeds {
		var prod catalog.Product
		err := m.db.Where("sku = ?", seed.product.SKU).First(&prod).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prod = seed.product
			prod.IsActive = true
			prod.Images = []catalog.ProductImage{{URL: seed.image, AltText: prod.Name}}
			if err := m.db.Create(&prod).Error; err != nil {
				return nil, err
			}
			m.log.WithField("sku", prod.SKU).Debug("Created seed product")
		} else if err != nil {
			return nil, err
		}
		created[prod.Category] = prod
	}
	return created, nil
}

const starterBuildName = "Starter Gaming Rig"

// seedStarterBuild creates a public build that uses every seeded component
func (m *Migration) seedStarterBuild(products map[string]catalog.Product) error {
	var count int64
	if err := m.db.Model(&pcbuild.Build{}).Where("name = ? AND is_public = ?", starterBuildName, true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Debug("Starter build already exists")
		return nil
	}

	slots := []string{
		pcbuild.CategoryCPU,
		pcbuild.CategoryMotherboard,
		pcbuild.CategoryRAM,
		pcbuild.CategoryGPU,
		pcbuild.CategoryStorage,
		pcbuild.CategoryPSU,
		pcbuild.CategoryCase,
	}
	build := pcbuild.Build{
		UserID:      1,
		Name:        starterBuildName,
		Description: "1440p gaming build on AM5",
		BuildType:   "gaming",
		IsPublic:    true,
	}
	for _, slot := range slots {
		prod, ok := products[slot]
		if !ok {
			continue
		}
		build.Components = append(build.Components, pcbuild.Component{
			ProductID: prod.ID,
			Category:  slot,
			Quantity:  1,
		})
	}
	return m.db.Create(&build).Error
}

// TableInfo returns the row count of every managed table
func (m *Migration) TableInfo() (map[string]int64, error) {
	info := make(map[string]int64)
	for _, model := range models() {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		var count int64
		if err := m.db.Table(stmt.Schema.Table).Count(&count).Error; err != nil {
			return nil, err
		}
		info[stmt.Schema.Table] = count
	}
	return info, nil
}

// LogTableInfo writes TableInfo to the log
func (m *Migration) LogTableInfo() {
	info, err := m.TableInfo()
	if err != nil {
		m.log.WithError(err).Warn("Failed to read table info")
		return
	}
	var total int64
	for table, count := range info {
		total += count
		m.log.WithFields(logrus.Fields{"table": table, "records": count}).Debug("Table info")
	}
	m.log.WithFields(logrus.Fields{"tables": len(info), "records": total}).Info("Database tables ready")
}
