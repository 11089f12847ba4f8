package entity

// FlowInfo describes a registered flow for the admin API.
type FlowInfo struct {
	ID    string     `json:"id"`
	Menu  *MenuInfo  `json:"menu,omitempty"`
	Steps []StepInfo `json:"steps"`
}

type MenuInfo struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type StepInfo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Suspendable bool   `json:"suspendable"`
	Marker      string `json:"marker,omitempty"`
}
