package project

type CategoryProgressResponse struct {
	CategoryProgress
	Completion int `json:"completion"`
}

type StatsResponse struct {
	ProjectID            int64                      `json:"project_id"`
	Name                 string                     `json:"name"`
	Tasks                TaskStats                  `json:"tasks"`
	RemainingStoryPoints int                        `json:"remaining_story_points"`
	Progress             int                        `json:"progress"`
	Categories           []CategoryProgressResponse `json:"categories"`
}
