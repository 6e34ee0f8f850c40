package domain

// Resource 应急物资（对应 resources 表）
type Resource struct {
	ID        int64          `db:"resource_id"`
	Type      ResourceType   `db:"resource_type"`
	Quantity  int            `db:"quantity"`
	Latitude  float64        `db:"latitude"`
	Longitude float64        `db:"longitude"`
	Status    ResourceStatus `db:"status"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (r *Resource) ToJSON() map[string]any {
	return map[string]any{
		"id":        r.ID,
		"type":      string(r.Type),
		"quantity":  r.Quantity,
		"latitude":  r.Latitude,
		"longitude": r.Longitude,
		"status":    string(r.Status),
	}
}
