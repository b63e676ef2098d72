package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
)

// kpiCacheTTL bounds how stale cached dashboard numbers may get.
const kpiCacheTTL = 5 * time.Minute

// OrderKPIs is the dashboard aggregate over orders and their sale orders.
type OrderKPIs struct {
	TotalOrders      int64            `json:"total_orders"`
	ByStatus         map[string]int64 `json:"by_status"`
	ActiveOrders     int64            `json:"active_orders"`
	DeliveredOrders  int64            `json:"delivered_orders"`
	CancelledOrders  int64            `json:"cancelled_orders"`
	OnTimeRate       float64          `json:"on_time_rate"` // percent of delivered orders delivered by their delivery date
	AvgLeadDays      float64          `json:"avg_lead_days"`
	Revenue          string           `json:"revenue"` // total of linked sale orders for delivered orders
	DocumentsMissing int64            `json:"documents_missing"`
}

// KPIFilter narrows the KPI aggregation window.
type KPIFilter struct {
	CustomerID uint
	From       *time.Time
	To         *time.Time
}

var redisCacheInstance *redis.Client

// InitRedisCache connects the KPI cache. With no REDIS_URL configured the
// cache stays disabled.
func InitRedisCache(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	redisCacheInstance = redis.NewClient(opts)
	return redisCacheInstance, nil
}

// GetRedisCache returns the KPI cache client, nil when disabled.
func GetRedisCache() *redis.Client {
	return redisCacheInstance
}

// SetRedisCache replaces the KPI cache client (primarily for testing)
func SetRedisCache(client *redis.Client) {
	redisCacheInstance = client
}

// ReportService computes dashboard KPIs, optionally caching them in redis.
// A nil redis client bypasses the cache.
type ReportService struct {
	db    *gorm.DB
	cache *redis.Client
}

// NewReportService builds a report service. cache may be nil.
func NewReportService(db *gorm.DB, cache *redis.Client) *ReportService {
	return &ReportService{db: db, cache: cache}
}

// OrderKPIs aggregates the dashboard numbers. Unfiltered results are served
// from the redis cache when one is configured.
func (s *ReportService) OrderKPIs(ctx context.Context, filter KPIFilter) (*OrderKPIs, error) {
	cacheable := filter.CustomerID == 0 && filter.From == nil && filter.To == nil
	const cacheKey = "kpis:orders"

	if cacheable && s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var kpis OrderKPIs
			if err := json.Unmarshal([]byte(cached), &kpis); err == nil {
				return &kpis, nil
			}
		}
	}

	kpis, err := s.computeKPIs(filter)
	if err != nil {
		return nil, err
	}

	if cacheable && s.cache != nil {
		if payload, err := json.Marshal(kpis); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, kpiCacheTTL).Err(); err != nil {
				config.Logger().Warn("failed to cache KPIs", zap.Error(err))
			}
		}
	}
	return kpis, nil
}

func (s *ReportService) computeKPIs(filter KPIFilter) (*OrderKPIs, error) {
	base := s.db.Model(&models.TailorOrder{})
	if filter.CustomerID != 0 {
		base = base.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.From != nil {
		base = base.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("order_date < ?", *filter.To)
	}

	kpis := &OrderKPIs{ByStatus: make(map[string]int64), Revenue: "0.00"}

	if err := base.Session(&gorm.Session{}).Count(&kpis.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := base.Session(&gorm.Session{}).Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, sc := range counts {
		kpis.ByStatus[sc.Status] = sc.Count
		switch sc.Status {
		case models.StatusDelivered:
			kpis.DeliveredOrders = sc.Count
		case models.StatusCancel:
			kpis.CancelledOrders = sc.Count
		default:
			kpis.ActiveOrders += sc.Count
		}
	}

	// On-time rate and lead time over delivered orders.
	var delivered []models.TailorOrder
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.StatusDelivered).Find(&delivered).Error; err != nil {
		return nil, err
	}
	if len(delivered) > 0 {
		onTime := 0
		totalLeadDays := 0.0
		for i := range delivered {
			order := &delivered[i]
			if order.StatusChangedOn == nil {
				continue
			}
			if order.DeliveryDate != nil && !order.StatusChangedOn.After(*order.DeliveryDate) {
				onTime++
			}
			totalLeadDays += order.StatusChangedOn.Sub(order.OrderDate).Hours() / 24
		}
		kpis.OnTimeRate = float64(onTime) / float64(len(delivered)) * 100
		kpis.AvgLeadDays = totalLeadDays / float64(len(delivered))
	}

	// Revenue: sale order totals of delivered orders.
	revenue := decimal.Zero
	for i := range delivered {
		if delivered[i].SaleOrderID == nil {
			continue
		}
		var saleOrder models.SaleOrder
		if err := s.db.First(&saleOrder, *delivered[i].SaleOrderID).Error; err != nil {
			continue
		}
		if total, err := decimal.NewFromString(saleOrder.TotalAmount); err == nil {
			revenue = revenue.Add(total)
		}
	}
	kpis.Revenue = revenue.StringFixed(2)

	// Required documents still missing an attachment.
	missingQuery := s.db.Model(&models.Document{}).
		Where("required = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM document_attachments a WHERE a.document_id = documents.id AND a.deleted_at IS NULL)")
	if filter.CustomerID != 0 {
		missingQuery = missingQuery.Where("customer_id = ?", filter.CustomerID)
	}
	if err := missingQuery.Count(&kpis.DocumentsMissing).Error; err != nil {
		return nil, err
	}

	return kpis, nil
}
