package api

import "pixelflow/pkg/model"

type ProcessImageResponse struct {
	// ProcessedImage is a data URL, e.g. data:image/jpeg;base64,...
	ProcessedImage string         `json:"processedImage"`
	Metadata       model.Metadata `json:"metadata"`
}

type DemoResponse = model.DemoReport

type HealthResponse struct {
	Status    string          `json:"status"`
	Processor ProcessorHealth `json:"processor"`
	Capacity  int64           `json:"capacity"`
	InFlight  int64           `json:"in_flight"`
	Workspace WorkspaceHealth `json:"workspace"`
	Host      HostHealth      `json:"host"`
}

type ProcessorHealth struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

type WorkspaceHealth struct {
	Dir    string `json:"dir"`
	Active int64  `json:"active"`
}

type HostHealth struct {
	LogicalCPUs  int     `json:"logical_cpus"`
	PhysicalCPUs int     `json:"physical_cpus"`
	Load1        float64 `json:"load1"`
}
