package domain

import "time"

// Alert 灾害告警（对应 alerts 表）
// 由采集管线根据阈值规则生成，或由外部授权方手工创建
type Alert struct {
	ID          int64     `db:"alert_id"`
	Type        AlertType `db:"alert_type"` // NOT NULL
	Severity    int       `db:"severity"`   // [1, 5]
	Latitude    float64   `db:"latitude"`
	Longitude   float64   `db:"longitude"`
	Timestamp   time.Time `db:"timestamp"`
	Description string    `db:"description"` // <= 1000 chars
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (a *Alert) ToJSON() map[string]any {
	return map[string]any{
		"id":          a.ID,
		"type":        string(a.Type),
		"severity":    a.Severity,
		"latitude":    a.Latitude,
		"longitude":   a.Longitude,
		"timestamp":   a.Timestamp.UTC().Format(time.RFC3339Nano),
		"description": a.Description,
	}
}
