package domain

import "time"

// Reading 设备读数（对应 device_data 表）
// 写入后不可变；读数本身不携带坐标，坐标属于设备
type Reading struct {
	ID        int64     `db:"id"`
	DeviceID  int64     `db:"device_id"` // FK → devices
	Value     float64   `db:"value"`
	Timestamp time.Time `db:"timestamp"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (r *Reading) ToJSON() map[string]any {
	return map[string]any{
		"id":        r.ID,
		"deviceId":  r.DeviceID,
		"value":     r.Value,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
