package model

import "time"

// Room is a lighting group as last reported by the lighting service.
type Room struct {
	Id   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	On   bool   `json:"on" yaml:"on"`
	// AnyOn is true when at least one light of the group is on.
	AnyOn bool `json:"any_on" yaml:"any_on"`
	// Brightness uses the 0-254 bridge scale.
	Brightness uint8 `json:"brightness" yaml:"brightness"`
}

const MaxBrightness = 254

// BrightnessPercent converts the bridge scale to 0-100.
func (r Room) BrightnessPercent() int {
	return int(r.Brightness) * 100 / MaxBrightness
}

// Zone is a heating zone as last reported by the climate service.
type Zone struct {
	Id                string  `json:"id" yaml:"id"`
	Name              string  `json:"name" yaml:"name"`
	CurrentTemp       float64 `json:"current_temp" yaml:"current_temp"`
	TargetTemp        float64 `json:"target_temp" yaml:"target_temp"`
	Humidity          float64 `json:"humidity" yaml:"humidity"`
	Heating           bool    `json:"heating" yaml:"heating"`
	HeatingPowerLevel int     `json:"heating_power" yaml:"heating_power"`
}

// SensorMetric selects which reading the sensor screens focus on.
type SensorMetric int8

const (
	CO2_METRIC SensorMetric = iota
	TEMPERATURE_METRIC
	HUMIDITY_METRIC
	VOC_METRIC

	SensorMetricCount
)

func (m SensorMetric) String() string {
	switch m {
	case CO2_METRIC:
		return "CO2"
	case TEMPERATURE_METRIC:
		return "Temperature"
	case HUMIDITY_METRIC:
		return "Humidity"
	case VOC_METRIC:
		return "VOC"
	}
	return "unknown"
}

// SensorReading is a calibrated air-quality sample.
type SensorReading struct {
	Valid       bool      `json:"valid"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Co2         int       `json:"co2"`
	VocIndex    int       `json:"voc_index"`
	ReadAt      time.Time `json:"read_at"`
}

// Value returns the reading for m as a float.
func (r SensorReading) Value(m SensorMetric) float64 {
	switch m {
	case CO2_METRIC:
		return float64(r.Co2)
	case TEMPERATURE_METRIC:
		return r.Temperature
	case HUMIDITY_METRIC:
		return r.Humidity
	case VOC_METRIC:
		return float64(r.VocIndex)
	}
	return 0
}
