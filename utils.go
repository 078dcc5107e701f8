package soundbox

import "math"

// DBToVolume переводит децибелы в линейную громкость: 10^(dB/20).
func DBToVolume(db float64) float64 {
	return math.Pow(10, db*0.05)
}

// VolumeToDB — обратное преобразование: 20·log10(v).
func VolumeToDB(volume float64) float64 {
	return 20 * math.Log10(volume)
}
