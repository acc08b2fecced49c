package weather

// Wind and precipitation thresholds that split every temperature band.
const (
	strongWindKph   = 20
	heavyPrecipProb = 70
)

// advisories holds the four messages for one temperature band, indexed by
// [strong wind][heavy precipitation].
type advisories [2][2]string

var (
	veryHot = advisories{
		{
			"Very hot and dry. Drink plenty of water and avoid exertion around midday.",
			"Very hot with a high chance of precipitation. Avoid staying outdoors for long.",
		},
		{
			"Very hot with strong wind. Carry water and stay out of direct sunlight.",
			"Very hot with strong wind and a high chance of precipitation. Avoid staying outdoors for long.",
		},
	}
	warm = advisories{
		{
			"Warm, calm and mostly dry. Good weather for a walk.",
			"Warm with precipitation. Take an umbrella.",
		},
		{
			"Warm with strong wind. Take a windbreaker.",
			"Warm with strong wind and precipitation. Take an umbrella and a windbreaker.",
		},
	}
	mild = advisories{
		{
			"Cool and calm. Good weather for a walk.",
			"Cool with precipitation. Take an umbrella.",
		},
		{
			"Cool and windy. Plan around the wind.",
			"Cool, windy and wet. Take rain protection.",
		},
	}
	cold = advisories{
		{
			"Cold and dry. Wear warm clothes.",
			"Cold with precipitation. Warm clothes and an umbrella are a must.",
		},
		{
			"Cold and windy. Wear warm clothes.",
			"Cold, windy and wet. Wear warm clothes and take an umbrella.",
		},
	}
	freezing = advisories{
		{
			"Freezing and dry. Warm clothes are a must.",
			"Freezing with precipitation. Warm clothes are a must.",
		},
		{
			"Freezing and windy. Very warm clothes are essential.",
			"Freezing with strong wind and precipitation. Very warm clothes are essential.",
		},
	}
)

// Classify maps temperature (°C), wind speed (km/h) and precipitation
// probability (0-100) to a travel advisory. Every input maps to exactly one of
// twenty fixed messages.
func Classify(tempC, windKph float64, precipProb int) string {
	var band advisories
	switch {
	case tempC > 35:
		band = veryHot
	case tempC > 25:
		band = warm
	case tempC > 15:
		band = mild
	case tempC > 0:
		band = cold
	default:
		band = freezing
	}
	return band[boolIndex(windKph > strongWindKph)][boolIndex(precipProb > heavyPrecipProb)]
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
