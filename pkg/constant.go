package pkg

const (
	INF_WEIGHT float64 = 1e15

	// bounds of the placeholder traffic multiplier applied to path graph edges
	TRAFFIC_FACTOR_MIN = 1.0
	TRAFFIC_FACTOR_MAX = 3.0

	// number of geocoder suggestions shown to the user
	DEFAULT_MAX_CANDIDATES = 5

	// zoom level of a freshly rendered map
	DEFAULT_MAP_ZOOM = 12
)
