// Package strongcsv parses Strong-app workout CSV exports.
package strongcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Set is one performed set from an export row.
type Set struct {
	Weight    float64
	Reps      int
	ToFailure bool
}

// Exercise groups consecutive sets of one exercise within a session.
type Exercise struct {
	Name string
	Sets []Set
}

// Session is one workout session reconstructed from export rows.
type Session struct {
	Name        string
	PerformedAt time.Time
	Exercises   []Exercise
}

// Columns the parser needs. Strong exports carry more (Distance, Seconds,
// Notes); those are ignored.
var requiredColumns = []string{"Date", "Workout Name", "Exercise Name", "Set Order", "Weight", "Reps"}

const dateLayout = "2006-01-02 15:04:05"

// Parse reads a Strong CSV export and reconstructs sessions. Rows are
// grouped by (date, workout name) in file order; consecutive rows of one
// exercise become its set sequence. An RPE of 10 marks a set as taken to
// failure.
func Parse(r io.Reader) ([]Session, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	minFields := 0
	for _, name := range requiredColumns {
		i, ok := col[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		if i >= minFields {
			minFields = i + 1
		}
	}
	rpeCol, hasRPE := col["RPE"]

	var sessions []Session
	var current *Session
	var currentExercise *Exercise

	flushExercise := func() {
		if currentExercise != nil {
			current.Exercises = append(current.Exercises, *currentExercise)
			currentExercise = nil
		}
	}
	flushSession := func() {
		if current != nil {
			flushExercise()
			sessions = append(sessions, *current)
			current = nil
		}
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		// FieldsPerRecord is disabled, so short rows reach here.
		if len(row) < minFields {
			return nil, fmt.Errorf("line %d: truncated row: %d fields, need %d", line, len(row), minFields)
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(row[col["Date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
		}
		workoutName := strings.TrimSpace(row[col["Workout Name"]])
		exerciseName := strings.TrimSpace(row[col["Exercise Name"]])
		if exerciseName == "" {
			return nil, fmt.Errorf("line %d: empty exercise name", line)
		}

		if current == nil || !current.PerformedAt.Equal(date) || current.Name != workoutName {
			flushSession()
			current = &Session{Name: workoutName, PerformedAt: date}
		}
		if currentExercise == nil || currentExercise.Name != exerciseName {
			flushExercise()
			currentExercise = &Exercise{Name: exerciseName}
		}

		set, err := parseSet(row, col, rpeCol, hasRPE)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		currentExercise.Sets = append(currentExercise.Sets, set)
	}
	flushSession()

	return sessions, nil
}

func parseSet(row []string, col map[string]int, rpeCol int, hasRPE bool) (Set, error) {
	var s Set

	if v := strings.TrimSpace(row[col["Weight"]]); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid weight %q", v)
		}
		s.Weight = w
	}
	if v := strings.TrimSpace(row[col["Reps"]]); v != "" {
		reps, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("invalid reps %q", v)
		}
		s.Reps = reps
	}
	if hasRPE && rpeCol < len(row) {
		if v := strings.TrimSpace(row[rpeCol]); v != "" {
			rpe, err := strconv.ParseFloat(v, 64)
			if err == nil && rpe >= 10 {
				s.ToFailure = true
			}
		}
	}
	return s, nil
}
