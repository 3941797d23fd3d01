package renderer

import (
	"sync"
	"testing"
)

func TestEnumerateTasks_OutputOrder(t *testing.T) {
	width, height := 4, 3
	tasks := EnumerateTasks(width, height)

	if len(tasks) != width*height {
		t.Fatalf("Expected %d tasks, got %d", width*height, len(tasks))
	}

	tests := []struct {
		index int
		x, y  int
	}{
		{0, 0, 2},  // top-left
		{3, 3, 2},  // top-right
		{4, 0, 1},  // next row starts at the left
		{11, 3, 0}, // bottom-right
	}
	for _, tt := range tests {
		task := tasks[tt.index]
		if task.X != tt.x || task.Y != tt.y || task.Index != tt.index {
			t.Errorf("Task %d: expected (%d,%d), got %+v", tt.index, tt.x, tt.y, task)
		}
	}
}

func TestTaskStack_ConcurrentPopTakesEachTaskOnce(t *testing.T) {
	tasks := EnumerateTasks(37, 23)
	stack := newTaskStack(tasks)

	seen := make([]int, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := stack.pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[task.Index]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("Task %d popped %d times", i, n)
		}
	}
	if stack.remaining() != 0 {
		t.Errorf("Expected empty stack, %d tasks remain", stack.remaining())
	}
	if _, ok := stack.pop(); ok {
		t.Error("Pop on an empty stack should report false")
	}
}
