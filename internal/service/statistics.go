package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/geo"
	"sced-data/internal/observability"
	"sced-data/internal/repository"
	"sced-data/internal/store"
)

// ============================================
// 统计 DTO
// ============================================

// LocationStatistic 按 2 位小数坐标桶聚合的位置统计
type LocationStatistic struct {
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	FloodAlerts       int       `json:"floodAlerts"`
	FireAlerts        int       `json:"fireAlerts"`
	EarthquakeAlerts  int       `json:"earthquakeAlerts"`
	ExtremeTempAlerts int       `json:"extremeTempAlerts"`
	TotalIncidents    int       `json:"totalIncidents"`
	LastIncident      time.Time `json:"lastIncident"`
	RiskScore         int       `json:"riskScore"`
}

// DeviceTypeStatistic 按设备类型聚合的运行与读数统计
type DeviceTypeStatistic struct {
	DeviceType         domain.DeviceType `json:"deviceType"`
	TotalDevices       int               `json:"totalDevices"`
	OperationalDevices int               `json:"operationalDevices"`
	AverageValue       float64           `json:"averageValue"`
	MaxValue           float64           `json:"maxValue"`
	MinValue           float64           `json:"minValue"`
	LastReadingTime    time.Time         `json:"lastReadingTime"`
	AlertCount         int               `json:"alertCount"`
}

// AlertTrend 按（日期，告警类型）分组的趋势点
type AlertTrend struct {
	Date            string           `json:"date"` // YYYY-MM-DD
	AlertType       domain.AlertType `json:"alertType"`
	Count           int              `json:"count"`
	AverageSeverity int              `json:"averageSeverity"` // 整数截断，非四舍五入
}

// GeographicHotspot 按 3 位小数坐标桶聚合的热点
type GeographicHotspot struct {
	Latitude             float64          `json:"latitude"`
	Longitude            float64          `json:"longitude"`
	AlertCount           int              `json:"alertCount"`
	RiskScore            int              `json:"riskScore"`
	PredominantAlertType domain.AlertType `json:"predominantAlertType"`
}

// DashboardStatistics 面板汇总
type DashboardStatistics struct {
	TotalAlerts        int                   `json:"totalAlerts"`
	OperationalDevices int                   `json:"operationalDevices"`
	TotalShelters      int                   `json:"totalShelters"`
	TotalResources     int                   `json:"totalResources"`
	Locations          []LocationStatistic   `json:"locations"`
	DeviceTypes        []DeviceTypeStatistic `json:"deviceTypes"`
	Trends             []AlertTrend          `json:"trends"`
	Hotspots           []GeographicHotspot   `json:"hotspots"`
	From               time.Time             `json:"from"`
	To                 time.Time             `json:"to"`
}

// RadiusFilter 位置统计的可选半径过滤
type RadiusFilter struct {
	RadiusKm  float64
	CenterLat float64
	CenterLng float64
}

// ============================================
// 统计服务
// ============================================

// StatisticsService 只读统计查询
// 全部查询共享窗口校验；无数据返回空集而不是错误
type StatisticsService struct {
	alerts    repository.AlertsRepo
	devices   repository.DevicesRepo
	readings  repository.ReadingsRepo
	shelters  repository.SheltersRepo
	resources repository.ResourcesRepo
	kv        store.KV // 面板缓存，可为 nil
	cacheTTL  time.Duration
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewStatisticsService(
	alerts repository.AlertsRepo,
	devices repository.DevicesRepo,
	readings repository.ReadingsRepo,
	shelters repository.SheltersRepo,
	resources repository.ResourcesRepo,
	kv store.KV,
	cacheTTL time.Duration,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *StatisticsService {
	return &StatisticsService{
		alerts:    alerts,
		devices:   devices,
		readings:  readings,
		shelters:  shelters,
		resources: resources,
		kv:        kv,
		cacheTTL:  cacheTTL,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

const maxWindowDays = 365

// defaultWindow 缺省窗口：from = 当前时间 − 3 个月，to = 当前时间
// 两个缺省都基于注入时钟的"现在"，即使另一端是显式给定的
func (s *StatisticsService) defaultWindow(from, to time.Time) (time.Time, time.Time) {
	now := s.clock.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = now.AddDate(0, -3, 0)
	}
	return from, to
}

// validateWindow 共享窗口校验：from ≤ to，to 不超过未来 1 天，跨度 ≤ 365 天
func (s *StatisticsService) validateWindow(from, to time.Time) error {
	if from.After(to) {
		return fmt.Errorf("%w: from must not be after to", domain.ErrInvalidArgument)
	}
	if to.After(s.clock.Now().Add(24 * time.Hour)) {
		return fmt.Errorf("%w: to must not be more than 1 day in the future", domain.ErrInvalidArgument)
	}
	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return fmt.Errorf("%w: window must not exceed %d days", domain.ErrInvalidArgument, maxWindowDays)
	}
	return nil
}

// ============================================
// 位置统计
// ============================================

// LocationStatistics 按 2 位小数坐标桶聚合窗口内告警，按风险分降序
func (s *StatisticsService) LocationStatistics(ctx context.Context, from, to time.Time, filter *RadiusFilter) ([]LocationStatistic, error) {
	from, to = s.defaultWindow(from, to)
	if err := s.validateWindow(from, to); err != nil {
		return nil, err
	}
	if filter != nil {
		if filter.RadiusKm <= 0 {
			return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
		}
		if !domain.ValidCoordinates(filter.CenterLat, filter.CenterLng) {
			return nil, fmt.Errorf("%w: center coordinates out of range", domain.ErrInvalidArgument)
		}
	}

	alerts, err := s.alerts.ListAlertsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for location statistics: %w", err)
	}

	type bucketKey struct{ lat, lng float64 }
	type bucketAgg struct {
		stat        LocationStatistic
		maxSeverity int
	}

	// 分组保持首次出现顺序，镜像稳定分组语义
	order := []bucketKey{}
	buckets := map[bucketKey]*bucketAgg{}

	for _, a := range alerts {
		key := bucketKey{round2(a.Latitude), round2(a.Longitude)}
		agg, ok := buckets[key]
		if !ok {
			agg = &bucketAgg{stat: LocationStatistic{
				Latitude:  key.lat,
				Longitude: key.lng,
			}}
			buckets[key] = agg
			order = append(order, key)
		}

		switch a.Type {
		case domain.AlertFlood:
			agg.stat.FloodAlerts++
		case domain.AlertFire:
			agg.stat.FireAlerts++
		case domain.AlertEarthquake:
			agg.stat.EarthquakeAlerts++
		case domain.AlertExtremeHeat, domain.AlertExtremeCold:
			agg.stat.ExtremeTempAlerts++
		}
		agg.stat.TotalIncidents++
		if a.Timestamp.After(agg.stat.LastIncident) {
			agg.stat.LastIncident = a.Timestamp
		}
		if a.Severity > agg.maxSeverity {
			agg.maxSeverity = a.Severity
		}
	}

	stats := []LocationStatistic{}
	for _, key := range order {
		agg := buckets[key]
		if filter != nil && !geo.WithinRadius(filter.CenterLat, filter.CenterLng, key.lat, key.lng, filter.RadiusKm) {
			continue
		}
		agg.stat.RiskScore = riskScore(agg.stat.TotalIncidents, agg.maxSeverity)
		stats = append(stats, agg.stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].RiskScore > stats[j].RiskScore
	})
	return stats, nil
}

// ============================================
// 设备类型统计
// ============================================

// DeviceTypeStatistics 按注册中心里出现的设备类型聚合
// 告警归属沿用坐标近邻连接（两轴都在 0.01° 内算同址）：
// 这是对真实设备-告警外键的有意简化，连同它的误匹配风险一起保留；
// 多个类型都能认领同一条告警时，按类型首次出现顺序先到先得
func (s *StatisticsService) DeviceTypeStatistics(ctx context.Context, from, to time.Time) ([]DeviceTypeStatistic, error) {
	from, to = s.defaultWindow(from, to)
	if err := s.validateWindow(from, to); err != nil {
		return nil, err
	}

	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load devices for type statistics: %w", err)
	}

	// 类型分组，保持首次出现顺序
	typeOrder := []domain.DeviceType{}
	byType := map[domain.DeviceType][]domain.Device{}
	allIDs := make([]int64, 0, len(devices))
	for _, d := range devices {
		if _, ok := byType[d.Type]; !ok {
			typeOrder = append(typeOrder, d.Type)
		}
		byType[d.Type] = append(byType[d.Type], d)
		allIDs = append(allIDs, d.ID)
	}

	readings, err := s.readings.ListReadingsForDevices(ctx, allIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for type statistics: %w", err)
	}
	readingsByDevice := map[int64][]domain.Reading{}
	for _, r := range readings {
		readingsByDevice[r.DeviceID] = append(readingsByDevice[r.DeviceID], r)
	}

	alerts, err := s.alerts.ListAlertsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for type statistics: %w", err)
	}
	alertCounts := s.claimAlertsByType(alerts, typeOrder, byType)

	stats := make([]DeviceTypeStatistic, 0, len(typeOrder))
	for _, dt := range typeOrder {
		group := byType[dt]
		stat := DeviceTypeStatistic{
			DeviceType:   dt,
			TotalDevices: len(group),
			AlertCount:   alertCounts[dt],
		}

		var (
			sum      float64
			count    int
			maxValue = math.Inf(-1)
			minValue = math.Inf(1)
			lastTime time.Time
		)
		for _, d := range group {
			if d.Status == domain.DeviceOperational {
				stat.OperationalDevices++
			}
			for _, r := range readingsByDevice[d.ID] {
				sum += r.Value
				count++
				if r.Value > maxValue {
					maxValue = r.Value
				}
				if r.Value < minValue {
					minValue = r.Value
				}
				if r.Timestamp.After(lastTime) {
					lastTime = r.Timestamp
				}
			}
		}
		// 窗口内没有读数的类型给零值聚合，不报错
		if count > 0 {
			stat.AverageValue = sum / float64(count)
			stat.MaxValue = maxValue
			stat.MinValue = minValue
			stat.LastReadingTime = lastTime
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

// claimAlertsByType 坐标近邻归属：每条告警最多记到一个类型头上
func (s *StatisticsService) claimAlertsByType(
	alerts []domain.Alert,
	typeOrder []domain.DeviceType,
	byType map[domain.DeviceType][]domain.Device,
) map[domain.DeviceType]int {
	counts := map[domain.DeviceType]int{}
	for _, a := range alerts {
		for _, dt := range typeOrder {
			claimed := false
			for _, d := range byType[dt] {
				if math.Abs(a.Latitude-d.Latitude) < 0.01 && math.Abs(a.Longitude-d.Longitude) < 0.01 {
					counts[dt]++
					claimed = true
					break
				}
			}
			if claimed {
				break
			}
		}
	}
	return counts
}

// ============================================
// 告警趋势
// ============================================

// AlertTrends 按（日历日期，告警类型）分组，日期升序
func (s *StatisticsService) AlertTrends(ctx context.Context, from, to time.Time) ([]AlertTrend, error) {
	from, to = s.defaultWindow(from, to)
	if err := s.validateWindow(from, to); err != nil {
		return nil, err
	}

	alerts, err := s.alerts.ListAlertsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for trends: %w", err)
	}

	type trendKey struct {
		date      string
		alertType domain.AlertType
	}
	type trendAgg struct {
		count       int
		severitySum int
	}

	order := []trendKey{}
	groups := map[trendKey]*trendAgg{}
	for _, a := range alerts {
		key := trendKey{a.Timestamp.Format("2006-01-02"), a.Type}
		agg, ok := groups[key]
		if !ok {
			agg = &trendAgg{}
			groups[key] = agg
			order = append(order, key)
		}
		agg.count++
		agg.severitySum += a.Severity
	}

	trends := []AlertTrend{}
	for _, key := range order {
		agg := groups[key]
		trends = append(trends, AlertTrend{
			Date:      key.date,
			AlertType: key.alertType,
			Count:     agg.count,
			// 平均严重度整数截断，刻意保留的可观测行为
			AverageSeverity: agg.severitySum / agg.count,
		})
	}

	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].Date < trends[j].Date
	})
	return trends, nil
}

// ============================================
// 地理热点
// ============================================

// GeographicHotspots 按 3 位小数坐标桶聚合，取告警数前 topN
func (s *StatisticsService) GeographicHotspots(ctx context.Context, from, to time.Time, topN int) ([]GeographicHotspot, error) {
	from, to = s.defaultWindow(from, to)
	if err := s.validateWindow(from, to); err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, fmt.Errorf("%w: topN must be positive", domain.ErrInvalidArgument)
	}

	alerts, err := s.alerts.ListAlertsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for hotspots: %w", err)
	}

	type bucketKey struct{ lat, lng float64 }
	type bucketAgg struct {
		count       int
		maxSeverity int
		typeOrder   []domain.AlertType
		typeCounts  map[domain.AlertType]int
	}

	order := []bucketKey{}
	buckets := map[bucketKey]*bucketAgg{}
	for _, a := range alerts {
		key := bucketKey{round3(a.Latitude), round3(a.Longitude)}
		agg, ok := buckets[key]
		if !ok {
			agg = &bucketAgg{typeCounts: map[domain.AlertType]int{}}
			buckets[key] = agg
			order = append(order, key)
		}
		agg.count++
		if a.Severity > agg.maxSeverity {
			agg.maxSeverity = a.Severity
		}
		if _, ok := agg.typeCounts[a.Type]; !ok {
			agg.typeOrder = append(agg.typeOrder, a.Type)
		}
		agg.typeCounts[a.Type]++
	}

	hotspots := make([]GeographicHotspot, 0, len(order))
	for _, key := range order {
		agg := buckets[key]

		// 并列时首个遇到的类型胜出
		var predominant domain.AlertType
		best := -1
		for _, t := range agg.typeOrder {
			if agg.typeCounts[t] > best {
				best = agg.typeCounts[t]
				predominant = t
			}
		}

		hotspots = append(hotspots, GeographicHotspot{
			Latitude:             key.lat,
			Longitude:            key.lng,
			AlertCount:           agg.count,
			RiskScore:            riskScore(agg.count, agg.maxSeverity),
			PredominantAlertType: predominant,
		})
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].AlertCount > hotspots[j].AlertCount
	})
	if len(hotspots) > topN {
		hotspots = hotspots[:topN]
	}
	return hotspots, nil
}

// ============================================
// 面板汇总
// ============================================

const defaultHotspotTopN = 10

// DashboardStatistics 面板汇总查询
// 窗口缺省：from = 当前时间 − 3 个月，to = 当前时间。
// 结果经 Redis 读透缓存，键按分钟截断，避免每次刷新都全量聚合
func (s *StatisticsService) DashboardStatistics(ctx context.Context, from, to time.Time) (*DashboardStatistics, error) {
	from, to = s.defaultWindow(from, to)
	if err := s.validateWindow(from, to); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%s",
		from.Truncate(time.Minute).Format(time.RFC3339),
		to.Truncate(time.Minute).Format(time.RFC3339),
	)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	totalAlerts, err := s.alerts.CountAlertsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	operational, err := s.devices.CountOperationalDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count operational devices: %w", err)
	}
	shelterCount, err := s.shelters.CountShelters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count shelters: %w", err)
	}
	resourceCount, err := s.resources.CountResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}

	locations, err := s.LocationStatistics(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}
	deviceTypes, err := s.DeviceTypeStatistics(ctx, from, to)
	if err != nil {
		return nil, err
	}
	trends, err := s.AlertTrends(ctx, from, to)
	if err != nil {
		return nil, err
	}
	hotspots, err := s.GeographicHotspots(ctx, from, to, defaultHotspotTopN)
	if err != nil {
		return nil, err
	}

	dashboard := &DashboardStatistics{
		TotalAlerts:        totalAlerts,
		OperationalDevices: operational,
		TotalShelters:      shelterCount,
		TotalResources:     resourceCount,
		Locations:          locations,
		DeviceTypes:        deviceTypes,
		Trends:             trends,
		Hotspots:           hotspots,
		From:               from,
		To:                 to,
	}
	s.cacheSet(ctx, cacheKey, dashboard)
	return dashboard, nil
}

func (s *StatisticsService) cacheGet(ctx context.Context, key string) *DashboardStatistics {
	if s.kv == nil {
		return nil
	}
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if err != store.ErrMiss {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	var dashboard DashboardStatistics
	if err := json.Unmarshal([]byte(raw), &dashboard); err != nil {
		// 坏条目立刻剔除，否则在 TTL 内每次读都要撞一遍
		s.logger.Warn("dashboard cache entry corrupt, evicting", zap.String("key", key), zap.Error(err))
		if derr := s.kv.Delete(ctx, key); derr != nil {
			s.logger.Warn("dashboard cache eviction failed", zap.String("key", key), zap.Error(derr))
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	s.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &dashboard
}

func (s *StatisticsService) cacheSet(ctx context.Context, key string, dashboard *DashboardStatistics) {
	if s.kv == nil {
		return
	}
	raw, err := json.Marshal(dashboard)
	if err != nil {
		s.logger.Warn("dashboard cache marshal failed", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

// ============================================
// 共享辅助
// ============================================

// riskScore = min(min(count*10, 70) + maxSeverity*6, 100)
func riskScore(count, maxSeverity int) int {
	base := count * 10
	if base > 70 {
		base = 70
	}
	score := base + maxSeverity*6
	if score > 100 {
		score = 100
	}
	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
