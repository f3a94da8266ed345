package types

// Action is what the placement engine does with a classified file.
type Action string

const (
	// ActionMove moves the file into its category folder
	ActionMove Action = "move"
	// ActionSimulate only logs the move (dry run)
	ActionSimulate Action = "simulate"
	// ActionBackupMove copies the file next to its destination, then moves it
	ActionBackupMove Action = "backup-then-move"
	// ActionBackupSimulate copies the file next to its destination and only
	// logs the move. The backup is a real write.
	ActionBackupSimulate Action = "backup-then-simulate"
	// ActionSkip leaves the file where it is (collision strategy "skip")
	ActionSkip Action = "skip"
)

// Decision describes where one file goes and how it gets there.
type Decision struct {
	Source            string `json:"source"`
	Category          string `json:"category"`
	DestinationFolder string `json:"destination_folder"`
	DestinationPath   string `json:"destination_path"`
	BackupPath        string `json:"backup_path,omitempty"`
	Action            Action `json:"action"`
	// Collision is set when something already exists at the planned
	// destination path.
	Collision bool `json:"collision,omitempty"`
}

// Backs reports whether the decision writes a backup copy.
func (d Decision) Backs() bool {
	return d.Action == ActionBackupMove || d.Action == ActionBackupSimulate
}

// Moves reports whether the decision relocates the source file.
func (d Decision) Moves() bool {
	return d.Action == ActionMove || d.Action == ActionBackupMove
}

// Outcome holds the result of placing a single file
type Outcome struct {
	Decision
	Size      int64 `json:"size"`
	Moved     bool  `json:"moved"`
	BackedUp  bool  `json:"backed_up"`
	Overwrote bool  `json:"overwrote,omitempty"`
	Err       error `json:"-"`
}

// Skipped is an entry the pass did not classify.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes one sort pass.
type Report struct {
	RunID    string    `json:"run_id"`
	DryRun   bool      `json:"dry_run"`
	Outcomes []Outcome `json:"outcomes"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

// Add records an outcome
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Skip records an entry that was filtered out
func (r *Report) Skip(path, reason string) {
	r.Skipped = append(r.Skipped, Skipped{Path: path, Reason: reason})
}

// Moved counts files actually relocated
func (r *Report) Moved() int {
	return r.count(func(o Outcome) bool { return o.Moved })
}

// Simulated counts dry-run placements
func (r *Report) Simulated() int {
	return r.count(func(o Outcome) bool {
		return o.Err == nil && (o.Action == ActionSimulate || o.Action == ActionBackupSimulate)
	})
}

// Failed counts files whose backup or move failed
func (r *Report) Failed() int {
	return r.count(func(o Outcome) bool { return o.Err != nil })
}

// BackedUp counts backup copies written
func (r *Report) BackedUp() int {
	return r.count(func(o Outcome) bool { return o.BackedUp })
}

// Collisions counts files left in place by the skip strategy
func (r *Report) Collisions() int {
	return r.count(func(o Outcome) bool { return o.Action == ActionSkip && o.Collision })
}

// BytesMoved sums the sizes of relocated files
func (r *Report) BytesMoved() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Moved {
			total += o.Size
		}
	}
	return total
}

func (r *Report) count(pred func(Outcome) bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if pred(o) {
			n++
		}
	}
	return n
}
