// monitor.go
package file

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听原始数据目录，新的或更新过的数据文件到达时回调
type FileMonitor struct {
	watchDirs []string
	watcher   *fsnotify.Watcher
	lastMod   map[string]time.Time
	mu        sync.Mutex
}

func NewFileMonitor(dirs ...string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return &FileMonitor{
		watchDirs: dirs,
		watcher:   watcher,
		lastMod:   make(map[string]time.Time),
	}, nil
}

// Watch 阻塞直到 ctx 结束或监听出错；同一文件修改时间未变化时不重复回调
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsDataFile(event.Name) {
				continue
			}
			if m.changed(event.Name) {
				go handler(event.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) changed(name string) bool {
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastMod[name]; ok && !info.ModTime().After(last) {
		return false
	}
	m.lastMod[name] = info.ModTime()
	return true
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
