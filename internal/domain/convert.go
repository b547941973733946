package domain

const (
	kgToLb       = 2.2046226218
	mmolToMgDl   = 18.0182
	minutesPerHr = 60
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

// MmolToMgDl converts a glucose value from mmol/L to mg/dL.
func MmolToMgDl(v float64) float64 {
	return v * mmolToMgDl
}

// FahrenheitToCelsius converts a temperature from °F to °C.
func FahrenheitToCelsius(v float64) float64 {
	return (v - 32) * 5 / 9
}

// HzToBPM converts a cardiac frequency from Hz to beats per minute.
func HzToBPM(v float64) float64 {
	return v * minutesPerHr
}
