package domain

// Shelter 应急避难所（对应 shelters 表）
type Shelter struct {
	ID               int64   `db:"shelter_id"`
	Name             string  `db:"name"`
	Address          string  `db:"address"`
	Capacity         int     `db:"capacity"`
	CurrentOccupancy int     `db:"current_occupancy"`
	Latitude         float64 `db:"latitude"`
	Longitude        float64 `db:"longitude"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (s *Shelter) ToJSON() map[string]any {
	return map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"address":          s.Address,
		"capacity":         s.Capacity,
		"currentOccupancy": s.CurrentOccupancy,
		"latitude":         s.Latitude,
		"longitude":        s.Longitude,
	}
}
