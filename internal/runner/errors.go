package runner

import "fmt"

var (
	// ErrWorkerExists 同名任务已存在
	ErrWorkerExists = fmt.Errorf("worker already exists")

	// ErrShutdownTimeout 退出超时
	ErrShutdownTimeout = fmt.Errorf("shutdown timeout")

	// ErrAlreadyRunning 已在运行
	ErrAlreadyRunning = fmt.Errorf("runner already running")
)
