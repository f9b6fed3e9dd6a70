package apimodel

import "time"

// Stats exposes the event pipeline counters.
type Stats struct {
	EventsSent        uint64    `json:"events_sent"`
	EventsDropped     uint64    `json:"events_dropped"`
	ForcedRefreshes   uint64    `json:"forced_refreshes"`
	EventsPending     int       `json:"events_pending"`
	FullRepaints      uint64    `json:"full_repaints"`
	PartialRepaints   uint64    `json:"partial_repaints"`
	RepaintFailures   uint64    `json:"repaint_failures"`
	PartialsSinceFull int       `json:"partials_since_full"`
	LastFullRepaint   time.Time `json:"last_full_repaint"`
}

// PanelState is the public view of what the panel shows.
type PanelState struct {
	Screen         string      `json:"screen"`
	PreviousScreen string      `json:"previous_screen"`
	StackDepth     int         `json:"stack_depth"`
	SelectedRoom   int         `json:"selected_room"`
	SelectedZone   int         `json:"selected_zone"`
	SelectedMetric string      `json:"selected_metric"`
	PartialRefresh bool        `json:"partial_refresh"`
	Battery        int         `json:"battery"`
	Rooms          interface{} `json:"rooms"`
	Zones          interface{} `json:"zones"`
	Sensor         interface{} `json:"sensor"`
	Connectivity   interface{} `json:"connectivity"`
}
