package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ymgch/pomotick/internal/core"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	TaskCount  int         `json:"task_count"`
	Tasks      []jsonTask  `json:"tasks"`
	Log        []jsonEntry `json:"log"`
}

type jsonTask struct {
	Text           string  `json:"text"`
	Completed      bool    `json:"completed"`
	CreatedAt      string  `json:"created_at"`
	CompletedAt    string  `json:"completed_at,omitempty"`
	Ticket         int     `json:"ticket,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	Project        string  `json:"project,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
	SpentMinutes   int     `json:"spent_minutes,omitempty"`
	Pomodoros      int     `json:"pomodoros,omitempty"`
}

type jsonEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func ToJSON(tasks []core.Task, log []core.LogEntry, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		TaskCount:  len(tasks),
	}

	for _, t := range tasks {
		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.Local().Format(time.RFC3339)
		}
		out.Tasks = append(out.Tasks, jsonTask{
			Text:           t.Text,
			Completed:      t.Completed,
			CreatedAt:      t.CreatedAt.Local().Format(time.RFC3339),
			CompletedAt:    completedAt,
			Ticket:         t.ExternalRef,
			Priority:       t.Priority,
			Project:        t.Project,
			EstimatedHours: t.EstimatedHours,
			SpentMinutes:   t.SpentMinutes,
			Pomodoros:      t.PomodorosSpent,
		})
	}

	for _, e := range log {
		out.Log = append(out.Log, jsonEntry{
			Timestamp: e.Timestamp.Local().Format(time.RFC3339),
			Message:   e.Message,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
