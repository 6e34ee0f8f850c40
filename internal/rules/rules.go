package rules

import (
	"fmt"
	"strconv"
	"time"

	"sced-data/internal/domain"
)

// 阈值规则引擎：根据设备类型和读数值决定是否生成告警草稿。
// 纯函数、无 I/O、永不失败——没有命中任何规则是合法结果而不是错误。
// 每条读数最多命中一条规则（温度的高低温条件天然互斥）。

// rule 单条阈值规则
type rule struct {
	match     func(value float64) bool
	alertType domain.AlertType
	severity  int
	template  string // 描述模板，%s 位置填入原始读数值
}

// ruleTable 设备类型 → 规则列表（同类型内按声明顺序评估）
var ruleTable = map[domain.DeviceType][]rule{
	domain.DeviceTemperatureSensor: {
		{
			match:     func(v float64) bool { return v > 38 },
			alertType: domain.AlertExtremeHeat,
			severity:  3,
			template:  "Extreme temperature detected: %s°C",
		},
		{
			match:     func(v float64) bool { return v < 15 },
			alertType: domain.AlertExtremeCold,
			severity:  3,
			template:  "Extreme cold detected: %s°C",
		},
	},
	domain.DeviceWaterLevelSensor: {
		{
			match:     func(v float64) bool { return v > 100 },
			alertType: domain.AlertFlood,
			severity:  5,
			template:  "High water level detected: %scm",
		},
	},
	domain.DeviceVibrationSensor: {
		{
			match:     func(v float64) bool { return v > 5 },
			alertType: domain.AlertEarthquake,
			severity:  4,
			template:  "High vibration detected: %sg",
		},
	},
	domain.DeviceSmokeSensor: {
		{
			match:     func(v float64) bool { return v > 200 },
			alertType: domain.AlertFire,
			severity:  4,
			template:  "High smoke level detected: %sppm",
		},
	},
}

// Evaluate 评估一条读数
// 返回的告警草稿携带“设备”的坐标和“读数”的时间戳；未命中规则时返回 nil
func Evaluate(deviceType domain.DeviceType, value float64, lat, lng float64, ts time.Time) *domain.Alert {
	for _, r := range ruleTable[deviceType] {
		if !r.match(value) {
			continue
		}
		return &domain.Alert{
			Type:        r.alertType,
			Severity:    r.severity,
			Latitude:    lat,
			Longitude:   lng,
			Timestamp:   ts,
			Description: fmt.Sprintf(r.template, formatValue(value)),
		}
	}
	return nil
}

// formatValue 读数值的最短十进制表示（150.0 → "150"，25.5 → "25.5"）
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
