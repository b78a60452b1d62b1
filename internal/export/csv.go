package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ymgch/pomotick/internal/core"
)

func ToCSV(tasks []core.Task, log []core.LogEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Type", "Text", "Completed", "Created", "Ticket", "Priority", "Project", "Spent (min)", "Pomodoros"}); err != nil {
		return err
	}

	for _, t := range tasks {
		kind := "task"
		ticket := ""
		if t.External() {
			kind = "ticket"
			ticket = strconv.Itoa(t.ExternalRef)
		}
		row := []string{
			kind,
			t.Text,
			strconv.FormatBool(t.Completed),
			t.CreatedAt.Local().Format(time.RFC3339),
			ticket,
			t.Priority,
			t.Project,
			strconv.Itoa(t.SpentMinutes),
			strconv.Itoa(t.PomodorosSpent),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, e := range log {
		row := []string{
			"log",
			e.Message,
			"",
			e.Timestamp.Local().Format(time.RFC3339),
			"", "", "", "", "",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
