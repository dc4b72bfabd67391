package task

import "github.com/frahmantamala/project-management/internal"

// transitionCheck is what a rule sees: the current task and the raw request.
type transitionCheck struct {
	current           *Task
	requestedStage    string
	requestedCategory string
}

// resultingCategory is the category the task will have once the request applies.
func (c transitionCheck) resultingCategory() Category {
	if c.requestedCategory != "" {
		return Category(c.requestedCategory)
	}
	return c.current.Category
}

type transitionRule struct {
	name  string
	check func(transitionCheck) error
}

// transitionRules are evaluated in order; the first failure wins. Anything that
// passes every rule is legal: stages and categories form a full graph.
var transitionRules = []transitionRule{
	{
		name: "open",
		check: func(c transitionCheck) error {
			if c.current.IsClosed {
				return internal.ErrTaskClosed
			}
			return nil
		},
	},
	{
		name: "known stage",
		check: func(c transitionCheck) error {
			if c.requestedStage == "" {
				return nil
			}
			if _, ok := ParseStage(c.requestedStage); !ok {
				return internal.ErrUnknownStage
			}
			return nil
		},
	},
	{
		name: "known category",
		check: func(c transitionCheck) error {
			if c.requestedCategory == "" {
				return nil
			}
			if _, ok := ParseCategory(c.requestedCategory); !ok {
				return internal.ErrUnknownCategory
			}
			return nil
		},
	},
	{
		name: "reject only in testing",
		check: func(c transitionCheck) error {
			if Stage(c.requestedStage) == StageReject && c.resultingCategory() != CategoryTesting {
				return internal.ErrRejectOutsideTesting
			}
			return nil
		},
	},
}

// Validate decides whether a requested move is structurally legal, regardless
// of who asked. Empty strings mean "not requested".
func Validate(current *Task, requestedStage, requestedCategory string) error {
	c := transitionCheck{
		current:           current,
		requestedStage:    requestedStage,
		requestedCategory: requestedCategory,
	}
	for _, rule := range transitionRules {
		if err := rule.check(c); err != nil {
			return err
		}
	}
	return nil
}
