package task

// TaskType categorizes tasks. A nil DepartmentId makes the type global.
type TaskType struct {
	Id           int
	Name         string
	DepartmentId *int
}

// Task is a project independent definition of work. Projects reach tasks through assignments only.
type Task struct {
	Id          int
	Name        string
	TaskTypeId  *int
	Description string
}
