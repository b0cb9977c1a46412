package domain

// Sample is one timestamped frequency reading produced by the acquisition
// loop. Timestamp is seconds since acquisition start. A sample with
// Valid == false means the instrument response did not parse as a number
// ("no reading"); Frequency is meaningless in that case. DeadtimeMillis is
// the time spent between gate windows beyond the configured gate duration,
// a bus-overhead diagnostic.
type Sample struct {
	Timestamp      float64 `json:"ts"`
	Frequency      float64 `json:"frequency_hz"`
	Valid          bool    `json:"valid"`
	DeadtimeMillis int     `json:"deadtime_ms"`
}
