package core

import (
	"testing"
)

// ============================================================
// Adding
// ============================================================

func TestAddTasksSplitsLines(t *testing.T) {
	ts := NewTaskStore()

	n := ts.AddTasks("write report\n\n  review PR  \n\t\nship it")
	if n != 3 {
		t.Fatalf("added %d tasks, want 3", n)
	}

	tasks := ts.Tasks()
	want := []string{"write report", "review PR", "ship it"}
	for i, w := range want {
		if tasks[i].Text != w {
			t.Fatalf("task[%d] = %q, want %q", i, tasks[i].Text, w)
		}
	}
}

func TestAddTasksBlankInputIsNoOp(t *testing.T) {
	ts := NewTaskStore()

	if n := ts.AddTasks("   \n\n\t"); n != 0 {
		t.Fatalf("added %d tasks from blank input, want 0", n)
	}
	if len(ts.Tasks()) != 0 {
		t.Fatal("blank input must not create tasks")
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("a\nb\nc")

	seen := make(map[string]bool)
	for _, task := range ts.Tasks() {
		if task.ID == "" {
			t.Fatal("empty id")
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %q", task.ID)
		}
		seen[task.ID] = true
	}
}

// ============================================================
// Complete / delete
// ============================================================

func TestComplete(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("a")
	id := ts.Tasks()[0].ID

	task := ts.Complete(id)
	if task == nil {
		t.Fatal("complete should return the task")
	}
	if !task.Completed || task.CompletedAt == nil {
		t.Fatal("task should be marked completed with a timestamp")
	}

	// Completing again is rejected
	if ts.Complete(id) != nil {
		t.Fatal("double-complete should return nil")
	}

	if ts.Complete("no-such-id") != nil {
		t.Fatal("unknown id should return nil")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("a\nb")
	id := ts.Tasks()[0].ID

	if !ts.Delete(id) {
		t.Fatal("first delete should report removal")
	}
	if ts.Delete(id) {
		t.Fatal("second delete should be a no-op")
	}
	if len(ts.Tasks()) != 1 {
		t.Fatalf("len = %d, want 1", len(ts.Tasks()))
	}
}

// ============================================================
// Editing
// ============================================================

func TestEditSaveAndCancel(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("original")
	id := ts.Tasks()[0].ID

	if !ts.StartEdit(id) {
		t.Fatal("edit should start")
	}
	if !ts.Tasks()[0].Editable {
		t.Fatal("task should be in edit mode")
	}

	if !ts.SaveEdit(id, "  changed  ") {
		t.Fatal("save should report a change")
	}
	if ts.Tasks()[0].Text != "changed" {
		t.Fatalf("text = %q, want trimmed %q", ts.Tasks()[0].Text, "changed")
	}

	// Cancel restores the pre-edit text exactly.
	ts.StartEdit(id)
	ts.Tasks()[0].Text = "half-typed"
	ts.CancelEdit(id)
	if ts.Tasks()[0].Text != "changed" {
		t.Fatalf("cancel left %q, want %q", ts.Tasks()[0].Text, "changed")
	}
	if ts.Tasks()[0].Editable {
		t.Fatal("cancel should leave edit mode")
	}
}

func TestSaveEditBlankKeepsPriorText(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("keep me")
	id := ts.Tasks()[0].ID

	ts.StartEdit(id)
	if ts.SaveEdit(id, "   ") {
		t.Fatal("blank save should not report a change")
	}
	if ts.Tasks()[0].Text != "keep me" {
		t.Fatalf("text = %q, want unchanged", ts.Tasks()[0].Text)
	}
}

func TestEditRejectsCompletedAndExternal(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("done")
	id := ts.Tasks()[0].ID
	ts.Complete(id)

	if ts.StartEdit(id) {
		t.Fatal("completed task must not be editable")
	}

	ts.replaceExternal([]*Task{{ID: newTaskID(), Text: "#7 ticket", ExternalRef: 7}})
	ext := ts.FirstExternal()
	if ts.StartEdit(ext.ID) {
		t.Fatal("imported task must not be editable")
	}
}

func TestStartEditCommitsOtherEditFirst(t *testing.T) {
	ts := NewTaskStore()
	ts.AddTasks("a\nb")
	first, second := ts.Tasks()[0], ts.Tasks()[1]

	ts.StartEdit(first.ID)
	first.Text = "a edited"
	ts.StartEdit(second.ID)

	if first.Editable {
		t.Fatal("starting a second edit should close the first")
	}
	if first.Text != "a edited" {
		t.Fatalf("first text = %q, want committed edit", first.Text)
	}
}

// ============================================================
// Stock
// ============================================================

func TestStockAddDeleteSelect(t *testing.T) {
	ts := NewTaskStore()

	if n := ts.AddStockTasks("later 1\nlater 2"); n != 2 {
		t.Fatalf("stocked %d, want 2", n)
	}

	id := ts.Stock()[0].ID
	ts.ToggleStockSelection(id)
	if !ts.Stock()[0].Selected {
		t.Fatal("selection should toggle on")
	}
	ts.ToggleStockSelection(id)
	if ts.Stock()[0].Selected {
		t.Fatal("selection should toggle off")
	}

	if !ts.DeleteStock(id) {
		t.Fatal("delete should report removal")
	}
	if ts.DeleteStock(id) {
		t.Fatal("second delete should be a no-op")
	}
}

func TestMoveSelectedToActivePreservesOrder(t *testing.T) {
	ts := NewTaskStore()
	ts.AddStockTasks("one\ntwo\nthree")
	ts.ToggleStockSelection(ts.Stock()[0].ID)
	ts.ToggleStockSelection(ts.Stock()[2].ID)

	moved := ts.MoveSelectedToActive()
	if moved != 2 {
		t.Fatalf("moved %d, want 2", moved)
	}

	tasks := ts.Tasks()
	if tasks[0].Text != "one" || tasks[1].Text != "three" {
		t.Fatalf("promotion order = %q, %q", tasks[0].Text, tasks[1].Text)
	}
	if len(ts.Stock()) != 1 || ts.Stock()[0].Text != "two" {
		t.Fatal("unselected entries should stay in stock")
	}

	// Promoted tasks get fresh ids.
	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate id %q after promotion", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestMoveWithNothingSelected(t *testing.T) {
	ts := NewTaskStore()
	ts.AddStockTasks("a")

	if n := ts.MoveSelectedToActive(); n != 0 {
		t.Fatalf("moved %d, want 0", n)
	}
	if len(ts.Stock()) != 1 {
		t.Fatal("stock should be untouched")
	}
}

// ============================================================
// Restore
// ============================================================

func TestRestoreClearsTransientFlags(t *testing.T) {
	ts := NewTaskStore()

	tasks := []Task{{ID: "t1", Text: "a", Editable: true}}
	stock := []StockTask{{ID: "s1", Text: "b", Selected: true}}
	ts.restore(tasks, stock)

	if ts.Tasks()[0].Editable {
		t.Fatal("edit mode must not survive a restore")
	}
	if ts.Stock()[0].Selected {
		t.Fatal("selection must not survive a restore")
	}
}
