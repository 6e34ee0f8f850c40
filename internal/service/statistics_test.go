package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sced-data/internal/domain"
	"sced-data/internal/observability"
	"sced-data/internal/repository"
	"sced-data/internal/store"
)

var statsNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ============================================
// 仓库测试替身
// ============================================

type fakeAlertsRepo struct {
	alerts []domain.Alert
	calls  int
}

func (f *fakeAlertsRepo) InsertAlert(_ context.Context, _ repository.Queryer, a *domain.Alert) (*domain.Alert, error) {
	stored := *a
	stored.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, stored)
	return &stored, nil
}

func (f *fakeAlertsRepo) GetAlert(_ context.Context, id int64) (*domain.Alert, error) {
	for _, a := range f.alerts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAlertsRepo) ListAlerts(_ context.Context) ([]domain.Alert, error) {
	return f.alerts, nil
}

func (f *fakeAlertsRepo) ListAlertsInWindow(_ context.Context, from, to time.Time) ([]domain.Alert, error) {
	f.calls++
	out := []domain.Alert{}
	for _, a := range f.alerts {
		if !a.Timestamp.Before(from) && !a.Timestamp.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertsRepo) ListAlertsByType(_ context.Context, t domain.AlertType) ([]domain.Alert, error) {
	out := []domain.Alert{}
	for _, a := range f.alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertsRepo) ListAlertsBySeverity(_ context.Context, severity int) ([]domain.Alert, error) {
	out := []domain.Alert{}
	for _, a := range f.alerts {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertsRepo) ListAlertsSince(_ context.Context, since time.Time) ([]domain.Alert, error) {
	out := []domain.Alert{}
	for _, a := range f.alerts {
		if !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertsRepo) CountAlertsInWindow(ctx context.Context, from, to time.Time) (int, error) {
	alerts, _ := f.ListAlertsInWindow(ctx, from, to)
	return len(alerts), nil
}

func (f *fakeAlertsRepo) DeleteAlert(_ context.Context, id int64) error {
	for i, a := range f.alerts {
		if a.ID == id {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeDevicesRepo struct {
	devices []domain.Device
}

func (f *fakeDevicesRepo) GetDevice(_ context.Context, _ repository.Queryer, id int64) (*domain.Device, error) {
	for _, d := range f.devices {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDevicesRepo) ListDevices(_ context.Context) ([]domain.Device, error) {
	return f.devices, nil
}

func (f *fakeDevicesRepo) ListDevicesByStatus(_ context.Context, status domain.DeviceStatus) ([]domain.Device, error) {
	out := []domain.Device{}
	for _, d := range f.devices {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDevicesRepo) ListDevicesByType(_ context.Context, t domain.DeviceType) ([]domain.Device, error) {
	out := []domain.Device{}
	for _, d := range f.devices {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDevicesRepo) CountOperationalDevices(_ context.Context) (int, error) {
	n := 0
	for _, d := range f.devices {
		if d.Status == domain.DeviceOperational {
			n++
		}
	}
	return n, nil
}

type fakeReadingsRepo struct {
	readings []domain.Reading
}

func (f *fakeReadingsRepo) InsertReading(_ context.Context, _ repository.Queryer, r *domain.Reading) (*domain.Reading, error) {
	stored := *r
	stored.ID = int64(len(f.readings) + 1)
	f.readings = append(f.readings, stored)
	return &stored, nil
}

func (f *fakeReadingsRepo) ListReadingsForDevices(_ context.Context, ids []int64, from, to time.Time) ([]domain.Reading, error) {
	idSet := map[int64]bool{}
	for _, id := range ids {
		idSet[id] = true
	}
	out := []domain.Reading{}
	for _, r := range f.readings {
		if idSet[r.DeviceID] && !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReadingsRepo) ListReadingsByDevice(ctx context.Context, id int64, from, to time.Time) ([]domain.Reading, error) {
	return f.ListReadingsForDevices(ctx, []int64{id}, from, to)
}

type fakeSheltersRepo struct {
	shelters []domain.Shelter
}

func (f *fakeSheltersRepo) GetShelter(_ context.Context, id int64) (*domain.Shelter, error) {
	for _, s := range f.shelters {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSheltersRepo) ListShelters(_ context.Context) ([]domain.Shelter, error) {
	return f.shelters, nil
}

func (f *fakeSheltersRepo) ListAvailableShelters(_ context.Context) ([]domain.Shelter, error) {
	out := []domain.Shelter{}
	for _, s := range f.shelters {
		if s.CurrentOccupancy < s.Capacity {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSheltersRepo) CountShelters(_ context.Context) (int, error) {
	return len(f.shelters), nil
}

func (f *fakeSheltersRepo) UpdateOccupancy(_ context.Context, id int64, occupancy int) error {
	for i := range f.shelters {
		if f.shelters[i].ID == id {
			f.shelters[i].CurrentOccupancy = occupancy
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeResourcesRepo struct {
	resources []domain.Resource
}

func (f *fakeResourcesRepo) GetResource(_ context.Context, id int64) (*domain.Resource, error) {
	for _, r := range f.resources {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeResourcesRepo) ListResources(_ context.Context) ([]domain.Resource, error) {
	return f.resources, nil
}

func (f *fakeResourcesRepo) ListResourcesByType(_ context.Context, t domain.ResourceType) ([]domain.Resource, error) {
	out := []domain.Resource{}
	for _, r := range f.resources {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResourcesRepo) ListAvailableResources(_ context.Context) ([]domain.Resource, error) {
	out := []domain.Resource{}
	for _, r := range f.resources {
		if r.Status == domain.ResourceAvailable && r.Quantity > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResourcesRepo) CountResources(_ context.Context) (int, error) {
	return len(f.resources), nil
}

type fakeKV struct {
	data    map[string]string
	deletes int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.deletes++
	delete(f.data, key)
	return nil
}

// ============================================
// 构造
// ============================================

type statsDeps struct {
	alerts    *fakeAlertsRepo
	devices   *fakeDevicesRepo
	readings  *fakeReadingsRepo
	shelters  *fakeSheltersRepo
	resources *fakeResourcesRepo
	kv        *fakeKV
}

func newStatsService(deps statsDeps) *StatisticsService {
	if deps.alerts == nil {
		deps.alerts = &fakeAlertsRepo{}
	}
	if deps.devices == nil {
		deps.devices = &fakeDevicesRepo{}
	}
	if deps.readings == nil {
		deps.readings = &fakeReadingsRepo{}
	}
	if deps.shelters == nil {
		deps.shelters = &fakeSheltersRepo{}
	}
	if deps.resources == nil {
		deps.resources = &fakeResourcesRepo{}
	}
	var kv store.KV
	if deps.kv != nil {
		kv = deps.kv
	}
	return NewStatisticsService(
		deps.alerts, deps.devices, deps.readings, deps.shelters, deps.resources,
		kv, time.Minute,
		clockwork.NewFakeClockAt(statsNow),
		observability.NewMetricsForTesting(),
		zap.NewNop(),
	)
}

func alertAt(id int64, t domain.AlertType, severity int, lat, lng float64, ts time.Time) domain.Alert {
	return domain.Alert{ID: id, Type: t, Severity: severity, Latitude: lat, Longitude: lng, Timestamp: ts}
}

// ============================================
// 窗口校验
// ============================================

func TestValidateWindow(t *testing.T) {
	svc := newStatsService(statsDeps{})
	ctx := context.Background()

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantErr bool
	}{
		{"valid", statsNow.AddDate(0, -1, 0), statsNow, false},
		{"from after to", statsNow, statsNow.AddDate(0, -1, 0), true},
		{"to too far in future", statsNow, statsNow.Add(25 * time.Hour), true},
		{"to slightly in future ok", statsNow, statsNow.Add(23 * time.Hour), false},
		{"span over a year", statsNow.AddDate(-1, -1, 0), statsNow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LocationStatistics(ctx, tt.from, tt.to, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ============================================
// 位置统计
// ============================================

func TestLocationStatistics_EmptyWindow(t *testing.T) {
	svc := newStatsService(statsDeps{})

	stats, err := svc.LocationStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, nil)

	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestLocationStatistics_BucketsByTwoDecimals(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 1.001, 1.002, ts),
		alertAt(2, domain.AlertFire, 3, 1.004, 1.003, ts.Add(time.Minute)),
		alertAt(3, domain.AlertEarthquake, 2, 5.0, 5.0, ts),
	}}})

	stats, err := svc.LocationStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, nil)

	require.NoError(t, err)
	require.Len(t, stats, 2)

	// 前两条合并进 (1.00, 1.00) 桶：count=2，maxSeverity=5
	// riskScore = min(min(2*10,70)+5*6, 100) = 50，排最前
	merged := stats[0]
	assert.Equal(t, 1.0, merged.Latitude)
	assert.Equal(t, 1.0, merged.Longitude)
	assert.Equal(t, 2, merged.TotalIncidents)
	assert.Equal(t, 1, merged.FloodAlerts)
	assert.Equal(t, 1, merged.FireAlerts)
	assert.Equal(t, 50, merged.RiskScore)
	assert.Equal(t, ts.Add(time.Minute), merged.LastIncident)

	single := stats[1]
	assert.Equal(t, 5.0, single.Latitude)
	assert.Equal(t, 1, single.TotalIncidents)
	assert.Equal(t, 1, single.EarthquakeAlerts)
	// min(10,70) + 2*6 = 22
	assert.Equal(t, 22, single.RiskScore)
}

func TestLocationStatistics_ExtremeTempCombined(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertExtremeHeat, 3, 2.0, 2.0, ts),
		alertAt(2, domain.AlertExtremeCold, 3, 2.0, 2.0, ts),
	}}})

	stats, err := svc.LocationStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, nil)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].ExtremeTempAlerts)
	assert.Equal(t, 2, stats[0].TotalIncidents)
}

func TestLocationStatistics_RadiusFilter(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 10.0, 20.0, ts),
		alertAt(2, domain.AlertFire, 4, 50.0, 120.0, ts),
	}}})

	stats, err := svc.LocationStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow,
		&RadiusFilter{RadiusKm: 100, CenterLat: 10.0, CenterLng: 20.0})

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 10.0, stats[0].Latitude)
}

func TestLocationStatistics_InvalidRadiusFilter(t *testing.T) {
	svc := newStatsService(statsDeps{})
	from, to := statsNow.AddDate(0, -1, 0), statsNow

	_, err := svc.LocationStatistics(context.Background(), from, to, &RadiusFilter{RadiusKm: 0, CenterLat: 0, CenterLng: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.LocationStatistics(context.Background(), from, to, &RadiusFilter{RadiusKm: 10, CenterLat: 91, CenterLng: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLocationStatistics_Idempotent(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 1.0, 1.0, ts),
		alertAt(2, domain.AlertFire, 3, 1.0, 1.0, ts),
	}}})
	from, to := statsNow.AddDate(0, -1, 0), statsNow

	first, err := svc.LocationStatistics(context.Background(), from, to, nil)
	require.NoError(t, err)
	second, err := svc.LocationStatistics(context.Background(), from, to, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// ============================================
// 设备类型统计
// ============================================

func TestDeviceTypeStatistics_Aggregates(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{
		devices: &fakeDevicesRepo{devices: []domain.Device{
			{ID: 1, Type: domain.DeviceTemperatureSensor, Status: domain.DeviceOperational, Latitude: 10.0, Longitude: 20.0},
			{ID: 2, Type: domain.DeviceTemperatureSensor, Status: domain.DeviceFaulty, Latitude: 11.0, Longitude: 21.0},
			{ID: 3, Type: domain.DeviceWaterLevelSensor, Status: domain.DeviceOperational, Latitude: 30.0, Longitude: 40.0},
		}},
		readings: &fakeReadingsRepo{readings: []domain.Reading{
			{ID: 1, DeviceID: 1, Value: 20.0, Timestamp: ts},
			{ID: 2, DeviceID: 1, Value: 30.0, Timestamp: ts.Add(time.Minute)},
		}},
		alerts: &fakeAlertsRepo{alerts: []domain.Alert{
			// 距离设备 1 两轴都在 0.01° 内，记给 TemperatureSensor
			alertAt(1, domain.AlertExtremeHeat, 3, 10.005, 20.005, ts),
			// 哪个设备都不挨着，谁也不认领
			alertAt(2, domain.AlertFlood, 5, 80.0, 80.0, ts),
		}},
	})

	stats, err := svc.DeviceTypeStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow)

	require.NoError(t, err)
	require.Len(t, stats, 2)

	temp := stats[0]
	assert.Equal(t, domain.DeviceTemperatureSensor, temp.DeviceType)
	assert.Equal(t, 2, temp.TotalDevices)
	assert.Equal(t, 1, temp.OperationalDevices)
	assert.Equal(t, 25.0, temp.AverageValue)
	assert.Equal(t, 30.0, temp.MaxValue)
	assert.Equal(t, 20.0, temp.MinValue)
	assert.Equal(t, ts.Add(time.Minute), temp.LastReadingTime)
	assert.Equal(t, 1, temp.AlertCount)

	// 窗口内没有读数的类型给零值聚合
	water := stats[1]
	assert.Equal(t, domain.DeviceWaterLevelSensor, water.DeviceType)
	assert.Equal(t, 1, water.TotalDevices)
	assert.Equal(t, 0.0, water.AverageValue)
	assert.True(t, water.LastReadingTime.IsZero())
	assert.Equal(t, 0, water.AlertCount)
}

func TestDeviceTypeStatistics_FirstTypeClaimsAlert(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	// 两个类型的设备坐标几乎重合，告警只记给先出现的类型
	svc := newStatsService(statsDeps{
		devices: &fakeDevicesRepo{devices: []domain.Device{
			{ID: 1, Type: domain.DeviceTemperatureSensor, Status: domain.DeviceOperational, Latitude: 10.0, Longitude: 20.0},
			{ID: 2, Type: domain.DeviceSmokeSensor, Status: domain.DeviceOperational, Latitude: 10.001, Longitude: 20.001},
		}},
		alerts: &fakeAlertsRepo{alerts: []domain.Alert{
			alertAt(1, domain.AlertFire, 4, 10.002, 20.002, ts),
		}},
	})

	stats, err := svc.DeviceTypeStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].AlertCount)
	assert.Equal(t, 0, stats[1].AlertCount)
}

func TestDeviceTypeStatistics_StrictBoundary(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	// 坐标差恰好 0.01° 不算同址（严格小于）
	svc := newStatsService(statsDeps{
		devices: &fakeDevicesRepo{devices: []domain.Device{
			{ID: 1, Type: domain.DeviceTemperatureSensor, Status: domain.DeviceOperational, Latitude: 10.0, Longitude: 20.0},
		}},
		alerts: &fakeAlertsRepo{alerts: []domain.Alert{
			alertAt(1, domain.AlertExtremeHeat, 3, 10.01, 20.0, ts),
		}},
	})

	stats, err := svc.DeviceTypeStatistics(context.Background(), statsNow.AddDate(0, -1, 0), statsNow)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 0, stats[0].AlertCount)
}

// ============================================
// 告警趋势
// ============================================

func TestAlertTrends_TruncatesAverageSeverity(t *testing.T) {
	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 3, 1, 1, day.Add(2*time.Hour)),
		alertAt(2, domain.AlertFlood, 4, 1, 1, day.Add(3*time.Hour)),
	}}})

	trends, err := svc.AlertTrends(context.Background(), statsNow.AddDate(0, -1, 0), statsNow)

	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "2025-05-10", trends[0].Date)
	assert.Equal(t, domain.AlertFlood, trends[0].AlertType)
	assert.Equal(t, 2, trends[0].Count)
	// (3+4)/2 = 3.5，截断为 3
	assert.Equal(t, 3, trends[0].AverageSeverity)
}

func TestAlertTrends_OrderedByDate(t *testing.T) {
	d1 := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFire, 4, 1, 1, d2),
		alertAt(2, domain.AlertFlood, 5, 1, 1, d1),
		alertAt(3, domain.AlertFire, 2, 1, 1, d1),
	}}})

	trends, err := svc.AlertTrends(context.Background(), statsNow.AddDate(0, -1, 0), statsNow)

	require.NoError(t, err)
	require.Len(t, trends, 3)
	assert.Equal(t, "2025-05-10", trends[0].Date)
	assert.Equal(t, "2025-05-10", trends[1].Date)
	assert.Equal(t, "2025-05-12", trends[2].Date)
}

// ============================================
// 地理热点
// ============================================

func TestGeographicHotspots_TopNAndPredominant(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		// 桶 (1.000, 1.000)：3 条，Fire 2 次为主
		alertAt(1, domain.AlertFire, 4, 1.0001, 1.0002, ts),
		alertAt(2, domain.AlertFire, 4, 1.0003, 1.0001, ts),
		alertAt(3, domain.AlertFlood, 5, 1.0002, 1.0003, ts),
		// 桶 (2.000, 2.000)：1 条
		alertAt(4, domain.AlertEarthquake, 2, 2.0, 2.0, ts),
	}}})

	hotspots, err := svc.GeographicHotspots(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, 1)

	require.NoError(t, err)
	require.Len(t, hotspots, 1)
	assert.Equal(t, 1.0, hotspots[0].Latitude)
	assert.Equal(t, 3, hotspots[0].AlertCount)
	assert.Equal(t, domain.AlertFire, hotspots[0].PredominantAlertType)
	// min(30,70) + 5*6 = 60
	assert.Equal(t, 60, hotspots[0].RiskScore)
}

func TestGeographicHotspots_TieBrokenByFirstEncountered(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 3.0, 3.0, ts),
		alertAt(2, domain.AlertFire, 4, 3.0, 3.0, ts),
	}}})

	hotspots, err := svc.GeographicHotspots(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, 5)

	require.NoError(t, err)
	require.Len(t, hotspots, 1)
	// 各 1 次并列，先遇到的 Flood 胜出
	assert.Equal(t, domain.AlertFlood, hotspots[0].PredominantAlertType)
}

func TestGeographicHotspots_InvalidTopN(t *testing.T) {
	svc := newStatsService(statsDeps{})

	_, err := svc.GeographicHotspots(context.Background(), statsNow.AddDate(0, -1, 0), statsNow, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGeographicHotspots_FinerThanLocationBuckets(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	// 2 位小数会合并、3 位小数分开的两个点
	alerts := &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 1.001, 1.0, ts),
		alertAt(2, domain.AlertFire, 4, 1.004, 1.0, ts),
	}}
	svc := newStatsService(statsDeps{alerts: alerts})
	from, to := statsNow.AddDate(0, -1, 0), statsNow

	locations, err := svc.LocationStatistics(context.Background(), from, to, nil)
	require.NoError(t, err)
	assert.Len(t, locations, 1)

	hotspots, err := svc.GeographicHotspots(context.Background(), from, to, 10)
	require.NoError(t, err)
	assert.Len(t, hotspots, 2)
}

// ============================================
// 面板汇总
// ============================================

func TestDashboardStatistics_DefaultsAndTotals(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	svc := newStatsService(statsDeps{
		alerts: &fakeAlertsRepo{alerts: []domain.Alert{
			alertAt(1, domain.AlertFlood, 5, 1.0, 1.0, ts),
		}},
		devices: &fakeDevicesRepo{devices: []domain.Device{
			{ID: 1, Type: domain.DeviceWaterLevelSensor, Status: domain.DeviceOperational, Latitude: 1.0, Longitude: 1.0},
			{ID: 2, Type: domain.DeviceGateway, Status: domain.DeviceOffline, Latitude: 2.0, Longitude: 2.0},
		}},
		shelters:  &fakeSheltersRepo{shelters: []domain.Shelter{{ID: 1, Capacity: 100}}},
		resources: &fakeResourcesRepo{resources: []domain.Resource{{ID: 1}, {ID: 2}}},
	})

	dashboard, err := svc.DashboardStatistics(context.Background(), time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, statsNow, dashboard.To)
	assert.Equal(t, statsNow.AddDate(0, -3, 0), dashboard.From)
	assert.Equal(t, 1, dashboard.TotalAlerts)
	assert.Equal(t, 1, dashboard.OperationalDevices)
	assert.Equal(t, 1, dashboard.TotalShelters)
	assert.Equal(t, 2, dashboard.TotalResources)
	assert.Len(t, dashboard.Locations, 1)
	assert.Len(t, dashboard.Trends, 1)
	assert.Len(t, dashboard.Hotspots, 1)
}

func TestDashboardStatistics_CacheReadThrough(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	alerts := &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFire, 4, 1.0, 1.0, ts),
	}}
	kv := newFakeKV()
	svc := newStatsService(statsDeps{alerts: alerts, kv: kv})

	first, err := svc.DashboardStatistics(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	callsAfterFirst := alerts.calls

	// 第二次命中缓存，不再打仓库
	second, err := svc.DashboardStatistics(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, alerts.calls)
	assert.Equal(t, first.TotalAlerts, second.TotalAlerts)
	assert.Len(t, second.Hotspots, 1)
}

func TestDashboardStatistics_CorruptCacheEntryEvicted(t *testing.T) {
	ts := statsNow.Add(-time.Hour)
	alerts := &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFlood, 5, 1.0, 1.0, ts),
	}}
	kv := newFakeKV()
	key := "dashboard:" + statsNow.AddDate(0, -3, 0).Format(time.RFC3339) +
		":" + statsNow.Format(time.RFC3339)
	kv.data[key] = "{not json"
	svc := newStatsService(statsDeps{alerts: alerts, kv: kv})

	dashboard, err := svc.DashboardStatistics(context.Background(), time.Time{}, time.Time{})

	require.NoError(t, err)
	// 坏条目当作未命中：剔除、重新聚合、回填
	assert.Equal(t, 1, kv.deletes)
	assert.Greater(t, alerts.calls, 0)
	assert.Equal(t, 1, dashboard.TotalAlerts)
	assert.NotEqual(t, "{not json", kv.data[key])
}

func TestAlertTrends_ZeroWindowDefaultsToLastThreeMonths(t *testing.T) {
	svc := newStatsService(statsDeps{alerts: &fakeAlertsRepo{alerts: []domain.Alert{
		alertAt(1, domain.AlertFire, 4, 1.0, 1.0, statsNow.Add(-time.Hour)),
		alertAt(2, domain.AlertFlood, 5, 1.0, 1.0, statsNow.AddDate(0, -4, 0)),
	}}})

	trends, err := svc.AlertTrends(context.Background(), time.Time{}, time.Time{})

	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, domain.AlertFire, trends[0].AlertType)
}

func TestDashboardStatistics_FromDefaultsAgainstNow(t *testing.T) {
	svc := newStatsService(statsDeps{})

	// 只给 to：from 仍然是“现在”往前推 3 个月，而不是 to 往前推
	to := statsNow.AddDate(0, -1, 0)
	dashboard, err := svc.DashboardStatistics(context.Background(), time.Time{}, to)

	require.NoError(t, err)
	assert.Equal(t, to, dashboard.To)
	assert.Equal(t, statsNow.AddDate(0, -3, 0), dashboard.From)
}
