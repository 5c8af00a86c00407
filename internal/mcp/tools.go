package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseFlexTime accepts RFC 3339 or plain dates.
func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

// --- Tool definitions ---

var toolGetMuscleStatus = mcp.NewTool("get_muscle_status",
	mcp.WithDescription("Current fatigue percentage and readiness classification (ready / caution / dont_train) for every muscle, with recovery decay applied. Optionally evaluated at a past or future timestamp."),
	mcp.WithString("at", mcp.Description("Evaluation time (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetRecoveryTimeline = mcp.NewTool("get_recovery_timeline",
	mcp.WithDescription("Day-by-day projected fatigue for one muscle, including when it crosses back into the ready band."),
	mcp.WithString("muscle", mcp.Required(), mcp.Description("Muscle name (e.g. chest, lats, quads, rear delts)")),
	mcp.WithNumber("days", mcp.Description("Days to project forward. Defaults to 7.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Per-exercise personal records: best single-set volume and best session volume."),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Per-muscle training volume summed over stored workouts in a date range."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with muscle engagement percentages."),
)

// --- Tool handlers ---

func (h *handlers) getMuscleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at := time.Now()
	if v := req.GetString("at", ""); v != "" {
		var err error
		at, err = parseFlexTime(v)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
	}

	uid := UserIDFromContext(ctx)
	states, err := h.ds.CurrentStates(ctx, uid, at)
	if err != nil {
		h.log.Error("mcp get_muscle_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(states)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecoveryTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("muscle")
	if err != nil {
		return mcp.NewToolResultError("muscle parameter is required"), nil
	}
	muscle, err := parseMuscleArg(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days := req.GetInt("days", 7)
	if days < 1 || days > 30 {
		return mcp.NewToolResultError("days must be between 1 and 30"), nil
	}

	uid := UserIDFromContext(ctx)
	points, err := h.ds.RecoveryTimeline(ctx, uid, muscle, time.Now(), days)
	if err != nil {
		h.log.Error("mcp get_recovery_timeline", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	bests, err := h.ds.PersonalBests(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(bests)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	volumes, err := h.ds.TrainingVolume(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(volumes)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.ds.Exercises())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
