package task

import (
	"fmt"

	"github.com/frahmantamala/project-management/internal/audit"
)

// milestone is what happens when a task crosses into Done, or into Reject
// while in Testing. A nil successor means no clone is made.
type milestone struct {
	awardPoints bool
	closeSource bool
	successor   func(source *Task) CloneSpec
	action      audit.Action
	detail      func(source *Task, spec CloneSpec) string
}

var buildDone = milestone{
	awardPoints: true,
	successor: func(source *Task) CloneSpec {
		return CloneSpec{
			Category:         CategoryTesting,
			Stage:            StageTodo,
			OriginalCategory: source.Category,
		}
	},
	action: audit.ActionTaskClonedToTesting,
	detail: func(source *Task, _ CloneSpec) string {
		return fmt.Sprintf("Testing task cloned from '%s' (%s).", source.Title, source.Category.Label())
	},
}

var testingDone = milestone{
	awardPoints: true,
	successor: func(source *Task) CloneSpec {
		original := source.OriginalCategory
		if original == "" {
			original = CategoryTesting
		}
		return CloneSpec{
			Category:         CategoryDeployment,
			Stage:            StageTodo,
			OriginalCategory: original,
		}
	},
	action: audit.ActionTaskClonedToDeployment,
	detail: func(source *Task, _ CloneSpec) string {
		return fmt.Sprintf("Deployment task cloned from '%s' (Testing).", source.Title)
	},
}

var deploymentDone = milestone{
	awardPoints: true,
	action:      audit.ActionDeploymentDone,
	detail: func(source *Task, _ CloneSpec) string {
		return fmt.Sprintf("Deployment DONE for '%s'. Task complete.", source.Title)
	},
}

var generalDone = milestone{
	awardPoints: true,
	action:      audit.ActionGeneralDone,
	detail: func(source *Task, _ CloneSpec) string {
		return fmt.Sprintf("General task '%s' DONE. Contribution points earned.", source.Title)
	},
}

var testingRejected = milestone{
	closeSource: true,
	successor: func(source *Task) CloneSpec {
		rework := source.OriginalCategory
		if rework == "" {
			rework = CategoryDevelopment
		}
		noPoints := 0
		return CloneSpec{
			Category:         rework,
			Stage:            StageTodo,
			OriginalCategory: rework,
			StoryPoints:      &noPoints,
		}
	},
	action: audit.ActionTestingRejected,
	detail: func(source *Task, spec CloneSpec) string {
		return fmt.Sprintf("Testing rejected for '%s'. Rework cloned back to %s.", source.Title, spec.Category)
	},
}

var doneMilestones = map[Category]milestone{
	CategoryDevelopment:    buildDone,
	CategoryImplementation: buildDone,
	CategoryImprovement:    buildDone,
	CategoryTesting:        testingDone,
	CategoryDeployment:     deploymentDone,
	CategoryGeneral:        generalDone,
}

// milestoneFor looks up the milestone for a task that has just entered stage
// while in category.
func milestoneFor(stage Stage, category Category) (milestone, bool) {
	switch stage {
	case StageDone:
		m, ok := doneMilestones[category]
		return m, ok
	case StageReject:
		if category == CategoryTesting {
			return testingRejected, true
		}
	}
	return milestone{}, false
}
