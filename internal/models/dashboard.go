package models

import "time"

// DashboardStats summarizes platform activity and host health.
type DashboardStats struct {
	TotalCommunities int            `json:"totalCommunities"`
	TotalUsers       int            `json:"totalUsers"`
	TotalMessages    int            `json:"totalMessages"`
	CategoryDist     map[string]int `json:"categoryDist"`
	CPUPercent       float64        `json:"cpuPercent"`
	MemoryPercent    float64        `json:"memoryPercent"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}

// MapMarker places a community on the map.
type MapMarker struct {
	CommunityID string  `json:"communityId"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Category    string  `json:"category"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// MapView is the map page payload.
type MapView struct {
	Center  [2]float64  `json:"center"`
	Markers []MapMarker `json:"markers"`
}
