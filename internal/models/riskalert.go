package models

import "time"

// RiskLevel 风险等级，全序 LOW < MEDIUM < HIGH < CRITICAL
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskLevelRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal position of the level, -1 for unknown values.
func (r RiskLevel) Rank() int {
	if rank, ok := riskLevelRank[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r is at least as severe as min.
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	return r.Rank() >= min.Rank()
}

// RiskType 风险类别
type RiskType string

const (
	RiskCrime           RiskType = "CRIME"
	RiskAccident        RiskType = "ACCIDENT"
	RiskNaturalDisaster RiskType = "NATURAL_DISASTER"
	RiskWeather         RiskType = "WEATHER"
	RiskTraffic         RiskType = "TRAFFIC"
	RiskOther           RiskType = "OTHER"
)

// RiskAlert 限时圆形风险区，由管理端创建，过期后被清理任务删除
type RiskAlert struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Title        string    `json:"title" gorm:"size:128"`
	Description  string    `json:"description" gorm:"size:1024"`
	RiskLevel    RiskLevel `json:"riskLevel" gorm:"size:16;index"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	RadiusMeters float64   `json:"radiusMeters"`
	RiskType     RiskType  `json:"riskType" gorm:"size:32;index"`
	Source       string    `json:"source,omitempty" gorm:"size:128"`
	SourceURL    string    `json:"sourceUrl,omitempty" gorm:"size:512"`
	ExpiresAt    time.Time `json:"expiresAt" gorm:"index"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Active reports whether the risk alert has not expired at the given instant.
func (r *RiskAlert) Active(now time.Time) bool {
	return r.ExpiresAt.After(now)
}
