package domain

// DeviceType 设备类型（封闭枚举，与设备注册中心保持一致）
type DeviceType string

const (
	DeviceTemperatureSensor DeviceType = "TemperatureSensor"
	DeviceHumiditySensor    DeviceType = "HumiditySensor"
	DeviceWaterLevelSensor  DeviceType = "WaterLevelSensor"
	DeviceVibrationSensor   DeviceType = "VibrationSensor"
	DeviceSmokeSensor       DeviceType = "SmokeSensor"
	DeviceMotionSensor      DeviceType = "MotionSensor"
	DeviceGateway           DeviceType = "Gateway"
)

// DeviceTypes 所有合法设备类型（声明顺序即枚举顺序）
var DeviceTypes = []DeviceType{
	DeviceTemperatureSensor,
	DeviceHumiditySensor,
	DeviceWaterLevelSensor,
	DeviceVibrationSensor,
	DeviceSmokeSensor,
	DeviceMotionSensor,
	DeviceGateway,
}

func (t DeviceType) Valid() bool {
	for _, v := range DeviceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// DeviceStatus 设备运行状态
type DeviceStatus string

const (
	DeviceOperational DeviceStatus = "Operational"
	DeviceMaintenance DeviceStatus = "Maintenance"
	DeviceFaulty      DeviceStatus = "Faulty"
	DeviceOffline     DeviceStatus = "Offline"
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceOperational, DeviceMaintenance, DeviceFaulty, DeviceOffline:
		return true
	}
	return false
}

// AlertType 灾害告警类型
type AlertType string

const (
	AlertFlood       AlertType = "Flood"
	AlertFire        AlertType = "Fire"
	AlertEarthquake  AlertType = "Earthquake"
	AlertExtremeHeat AlertType = "ExtremeHeat"
	AlertExtremeCold AlertType = "ExtremeCold"
)

// AlertTypes 所有合法告警类型（声明顺序即枚举顺序）
var AlertTypes = []AlertType{
	AlertFlood,
	AlertFire,
	AlertEarthquake,
	AlertExtremeHeat,
	AlertExtremeCold,
}

func (t AlertType) Valid() bool {
	for _, v := range AlertTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ResourceType 应急资源类型
type ResourceType string

const (
	ResourceWater           ResourceType = "Water"
	ResourceFood            ResourceType = "Food"
	ResourceMedicalSupplies ResourceType = "MedicalSupplies"
	ResourceBlankets        ResourceType = "Blankets"
	ResourceRescueEquipment ResourceType = "RescueEquipment"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceWater, ResourceFood, ResourceMedicalSupplies, ResourceBlankets, ResourceRescueEquipment:
		return true
	}
	return false
}

// ResourceStatus 应急资源状态
type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "Available"
	ResourceInUse     ResourceStatus = "InUse"
	ResourceExhausted ResourceStatus = "Exhausted"
	ResourceDamaged   ResourceStatus = "Damaged"
	ResourcePending   ResourceStatus = "Pending"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceAvailable, ResourceInUse, ResourceExhausted, ResourceDamaged, ResourcePending:
		return true
	}
	return false
}
