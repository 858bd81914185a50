// handler.go
package email

import (
	"LoadFactorOTP/src/datasource/file"
	"LoadFactorOTP/src/storage"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ====================== 邮件处理器实现 ======================

// DefaultLoadFactorKeywords 附件名包含这些关键词(不区分大小写)时视为 T-100 航段数据
var DefaultLoadFactorKeywords = []string{"segment", "t100"}

// AttachmentHandler 把目标邮件中的 .csv / .xlsx 附件保存到对应的原始数据目录
type AttachmentHandler struct {
	LoadFactorDir string   // T-100 航段数据目录
	OTPDir        string   // 准点率数据目录
	Keywords      []string // 判定为载客率数据的文件名关键词

	logger        *storage.Logger
	processedUIDs map[uint32]bool // 已处理邮件UID记录
	mu            sync.RWMutex    // 保护processedUIDs的读写锁
}

func NewAttachmentHandler(lfDir, otpDir string, logger *storage.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		LoadFactorDir: lfDir,
		OTPDir:        otpDir,
		Keywords:      DefaultLoadFactorKeywords,
		logger:        logger,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 检查邮件是否已处理过（线程安全）
func (h *AttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *AttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// targetDir 按附件名选择保存目录
func (h *AttachmentHandler) targetDir(filename string) string {
	lower := strings.ToLower(filename)
	for _, kw := range h.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return h.LoadFactorDir
		}
	}
	return h.OTPDir
}

// Handle 保存邮件中的数据附件；没有数据附件的邮件不标记为已处理
func (h *AttachmentHandler) Handle(email *Email) error {
	if h.IsProcessed(email.UID) {
		return nil
	}

	h.logger.Info(fmt.Sprintf("处理邮件: %s 发件人: %s 日期: %s",
		email.Subject, email.From, email.Date.Format("2006-01-02 15:04:05")))

	saved := 0
	for _, attachment := range email.Attachments {
		// 只保留文件名部分，防止附件名带路径
		name := filepath.Base(attachment.Filename)
		if !file.IsDataFile(name) {
			h.logger.Debug("跳过非数据附件: " + attachment.Filename)
			continue
		}

		dir := h.targetDir(name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}

		filePath := filepath.Join(dir, name)
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return fmt.Errorf("保存附件失败: %w", err)
		}
		h.logger.Info("附件已保存到: " + filePath)
		saved++
	}

	if saved > 0 {
		h.markAsProcessed(email.UID)
	}
	return nil
}
