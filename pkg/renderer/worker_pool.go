package renderer

import (
	"sync"
)

// Task is one pixel of the image together with its position in the output
type Task struct {
	X     int // Pixel column, left to right
	Y     int // Pixel row, bottom (0) to top (height-1)
	Index int // Sequential output index
}

// EnumerateTasks lists every pixel in output order:
// rows from top to bottom, columns from left to right.
func EnumerateTasks(width, height int) []Task {
	tasks := make([]Task, 0, width*height)
	for j := height - 1; j >= 0; j-- {
		for i := 0; i < width; i++ {
			tasks = append(tasks, Task{X: i, Y: j, Index: len(tasks)})
		}
	}
	return tasks
}

// taskStack is the shared task collection drained by the workers.
// The lock is held only for a single pop, never while a pixel is sampled.
type taskStack struct {
	mu    sync.Mutex
	tasks []Task
}

func newTaskStack(tasks []Task) *taskStack {
	return &taskStack{tasks: tasks}
}

// pop removes and returns the last task, or false once the stack is empty
func (s *taskStack) pop() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	if n == 0 {
		return Task{}, false
	}
	task := s.tasks[n-1]
	s.tasks = s.tasks[:n-1]
	return task, true
}

// remaining returns the number of tasks not yet popped
func (s *taskStack) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
