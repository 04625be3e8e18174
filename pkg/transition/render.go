package transition

// Render 按控制器阶段决定是否输出子内容：BeforeMount 阶段返回零值和 false，
// 其余阶段原样返回 child。样式由子内容根据通知的 State 自行决定。
func Render[T any](c *Controller, child T) (T, bool) {
	if !c.Mounted() {
		var zero T
		return zero, false
	}
	return child, true
}
