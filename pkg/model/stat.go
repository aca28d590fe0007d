package model

type DemoComparison struct {
	Operation    Operation `json:"operation"`
	SerialTime   float64   `json:"serial"`
	ParallelTime float64   `json:"parallel"`
	Speedup      float64   `json:"speedup"`
}

type DemoReport struct {
	ImageSize string           `json:"imageSize"`
	Results   []DemoComparison `json:"results"`
}
