package geo

import (
	"math"
	"sort"
)

// earthRadiusKm 地球平均半径
const earthRadiusKm = 6371

// Distance 计算两点间大圆距离（haversine 公式，单位 km）
// 调用方负责保证坐标合法（lat ∈ [-90,90]，lng ∈ [-180,180]）；
// 本包是纯数值原语，不做校验，非法输入按 NaN 传播
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// WithinRadius 半径判定（含边界：距离恰好等于 radiusKm 视为在圈内）
func WithinRadius(centerLat, centerLng, lat, lng, radiusKm float64) bool {
	return Distance(centerLat, centerLng, lat, lng) <= radiusKm
}

// Ranked 带距离的排序结果
type Ranked[T any] struct {
	Item       T
	DistanceKm float64
}

// RankByProximity 按与中心点的距离升序排序
// 稳定排序：距离相同时保持输入顺序（没有定义次级排序键）
func RankByProximity[T any](centerLat, centerLng float64, items []T, at func(T) (lat, lng float64)) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		lat, lng := at(item)
		ranked = append(ranked, Ranked[T]{
			Item:       item,
			DistanceKm: Distance(centerLat, centerLng, lat, lng),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
