package domain

// Device 设备领域模型（对应 devices 表）
// 设备注册中心负责维护，本服务只读
type Device struct {
	ID        int64        `db:"device_id"`
	Type      DeviceType   `db:"device_type"` // NOT NULL
	Status    DeviceStatus `db:"status"`      // NOT NULL, default 'Offline'
	Latitude  float64      `db:"latitude"`    // [-90, 90]
	Longitude float64      `db:"longitude"`   // [-180, 180]
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (d *Device) ToJSON() map[string]any {
	return map[string]any{
		"id":        d.ID,
		"type":      string(d.Type),
		"status":    string(d.Status),
		"latitude":  d.Latitude,
		"longitude": d.Longitude,
	}
}

// ValidCoordinates 坐标范围检查
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
