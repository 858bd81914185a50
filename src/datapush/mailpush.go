package datapush

import (
	"LoadFactorOTP/src/config"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/jordan-wright/email"
)

const defaultSMTPPort = "465"

// smtpAddr 补全端口，返回 host:port 与 host
func smtpAddr(server string) (string, string) {
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		return net.JoinHostPort(server, defaultSMTPPort), server
	}
	return net.JoinHostPort(host, port), host
}

// buildReportEmail 组装报告邮件，缺失的附件直接报错
func buildReportEmail(c *config.Config, body string, attachments []string) (*email.Email, error) {
	if len(c.SendEmail.To) == 0 {
		return nil, fmt.Errorf("未配置收件人")
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("LoadFactorOTP <%s>", c.SendEmail.Username)
	e.To = c.SendEmail.To
	e.Subject = c.SendEmail.Subject
	e.Text = []byte(body)

	for _, path := range attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("附件文件不存在: %s", path)
		}
		if _, err := e.AttachFile(path); err != nil {
			return nil, fmt.Errorf("附件添加失败: %w", err)
		}
	}
	return e, nil
}

// SendReport 通过 SMTP over TLS 发送报告及附件
func SendReport(c *config.Config, body string, attachments []string) error {
	e, err := buildReportEmail(c, body, attachments)
	if err != nil {
		return err
	}

	addr, host := smtpAddr(strings.TrimSpace(c.SendEmail.Server))
	err = e.SendWithTLS(
		addr,
		smtp.PlainAuth("", c.SendEmail.Username, c.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return fmt.Errorf("邮件发送失败: %w (Server: %s)", err, addr)
	}
	return nil
}
