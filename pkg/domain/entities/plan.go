package entities

// Forecast holds the user-entered demand inputs for the next two service periods
type Forecast struct {
	Lunch         int     `json:"forecast_lunch" form:"lunch"`
	Dinner        int     `json:"forecast_dinner" form:"dinner"`
	SafetyPct     float64 `json:"safety_pct" form:"safety_pct"`
	MinTrayBuffer int     `json:"min_tray_buffer" form:"min_tray_buffer"`
}

// DefaultForecast returns the default service-day inputs
func DefaultForecast() Forecast {
	return Forecast{Lunch: 180, Dinner: 220, SafetyPct: 10, MinTrayBuffer: 2}
}

// Plan is the tray-level demand and shortfall computed from a snapshot
type Plan struct {
	DemandLunch       int `json:"demand_lunch"`
	DemandDinner      int `json:"demand_dinner"`
	LunchShortfall    int `json:"lunch_shortfall"`
	DinnerShortfall   int `json:"dinner_shortfall"`
	TotalTraysToStart int `json:"total_trays_to_start"`
	TraysReady        int `json:"trays_ready"`
	InboundReadyBy50h int `json:"inbound_ready_by_50h"`
}
