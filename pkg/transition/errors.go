package transition

import "fmt"

var (
	// ErrClosed 控制器已关闭
	ErrClosed = fmt.Errorf("transition controller closed")

	// ErrControllerNotFound 分组中不存在该控制器
	ErrControllerNotFound = fmt.Errorf("controller not found")

	// ErrControllerExists 分组中已存在同名控制器
	ErrControllerExists = fmt.Errorf("controller already exists")
)
