// reopenlog 给正在运行的分析进程发送 SIGHUP，让它重新打开日志文件
// 用于 logrotate 的 postrotate:
//
//	reopenlog -pid /var/run/lfotp.pid
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取 pid 文件失败: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid 文件内容无效: %q", strings.TrimSpace(string(data)))
	}
	return pid, nil
}

func main() {
	pidFile := flag.String("pid", "lfotp.pid", "分析进程写入的 pid 文件")
	flag.Parse()

	pid, err := readPid(*pidFile)
	if err != nil {
		log.Fatal(err)
	}
	// 向分析进程发送 SIGHUP
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
}
