package models

// DashboardOverview aggregates the landing-page numbers.
type DashboardOverview struct {
	Contracts   ContractCounts `json:"contracts"`
	Tasks       TaskCounts     `json:"tasks"`
	RecentCalls []Call         `json:"recentCalls"`
	RecentTasks []Task         `json:"recentTasks"`
}

// ContractCounts counts clients whose contracts expire soon.
type ContractCounts struct {
	In14 int `json:"in14"`
	In30 int `json:"in30"`
}

// TaskCounts counts tasks due today and within the week.
type TaskCounts struct {
	Today int `json:"today"`
	Week  int `json:"week"`
}
