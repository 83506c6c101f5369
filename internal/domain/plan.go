package domain

// PlanEntry is the classification of one candidate file before any move
type PlanEntry struct {
	Path          string
	Name          string
	Category      string
	Destination   string // empty when the file stays where it is
	Blocked       bool
	Uncategorized bool
	Reason        string
	Size          int64
}

// Movable reports whether the organizer would move this file
func (e PlanEntry) Movable() bool {
	return !e.Blocked && e.Destination != ""
}

// Plan describes what an organize run would do
type Plan struct {
	Root    string
	Entries []PlanEntry
	Errors  []FileError // explicit paths that could not be resolved
	Risk    RiskReport
}

// Movable returns the paths the organizer would attempt to move
func (p Plan) Movable() []string {
	var out []string
	for _, e := range p.Entries {
		if e.Movable() {
			out = append(out, e.Path)
		}
	}
	return out
}
