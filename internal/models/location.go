package models

import "time"

// LocationSource 定位来源
type LocationSource string

const (
	LocationGPS     LocationSource = "GPS"
	LocationNetwork LocationSource = "NETWORK"
	LocationPassive LocationSource = "PASSIVE"
	LocationManual  LocationSource = "MANUAL"
)

// Location 设备上报的坐标，内嵌到各实体中
type Location struct {
	Lat       float64        `json:"lat"`
	Lon       float64        `json:"lon"`
	Accuracy  float64        `json:"accuracy"`           // 水平精度（米）
	Source    LocationSource `json:"source" gorm:"size:16"`
	Timestamp time.Time      `json:"timestamp"`
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lon == 0 && l.Timestamp.IsZero()
}
