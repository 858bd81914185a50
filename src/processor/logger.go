package processor

// Logger 处理流程使用的日志接口，storage.Logger 满足该接口
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
}

type nopLogger struct{}

func (nopLogger) Debug(string)   {}
func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
