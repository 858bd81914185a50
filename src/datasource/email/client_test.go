package email

import (
	"LoadFactorOTP/src/storage"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "载客率月报" 的 GBK 编码
const gbkSubject = "=?GBK?B?1Ni/zcLK1MKxqA==?="

const rawMessage = "From: BTS Export <export@example.com>\r\n" +
	"To: analyst@example.com\r\n" +
	"Subject: " + gbkSubject + "\r\n" +
	"Date: Mon, 05 Feb 2024 08:30:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"monthly extract attached\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/csv\r\n" +
	"Content-Disposition: attachment; filename=\"T_T100D_2024_Segment.csv\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"T1JJR0lOLERFU1QKREVOLExBUwo=\r\n" +
	"--BOUNDARY--\r\n"

func newTestLogger(t *testing.T) *storage.Logger {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "mail.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

// ---------------------------------------------------------------------------
// header decoding
// ---------------------------------------------------------------------------

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "载客率月报", decodeHeader(gbkSubject))
	assert.Equal(t, "On-Time Report", decodeHeader("=?UTF-8?Q?On-Time_Report?="))
	assert.Equal(t, "plain subject", decodeHeader("plain subject"))
}

func TestCharsetReaderPassThrough(t *testing.T) {
	r, err := charsetReader("ISO-8859-1", strings.NewReader("abc"))
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
}

// ---------------------------------------------------------------------------
// message parsing
// ---------------------------------------------------------------------------

func TestReadMessage(t *testing.T) {
	email, err := readMessage(42, strings.NewReader(rawMessage))
	require.NoError(t, err)

	assert.Equal(t, uint32(42), email.UID)
	assert.Equal(t, "载客率月报", email.Subject)
	assert.Contains(t, email.From, "export@example.com")
	assert.Equal(t, 2024, email.Date.Year())

	require.Len(t, email.Attachments, 1)
	assert.Equal(t, "T_T100D_2024_Segment.csv", email.Attachments[0].Filename)
	assert.Equal(t, "ORIGIN,DEST\nDEN,LAS\n", string(email.Attachments[0].Content))
}

// ---------------------------------------------------------------------------
// filtering and handling
// ---------------------------------------------------------------------------

func TestFilterTargetEmails(t *testing.T) {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	emails := []*Email{
		{UID: 1, Subject: "BTS OTP January", Date: base.Add(48 * time.Hour)},
		{UID: 2, Subject: "newsletter", Date: base},
		{UID: 3, Subject: "BTS T-100 January", Date: base},
	}

	got := filterTargetEmails(emails, "BTS")
	require.Len(t, got, 2)
	assert.Equal(t, uint32(3), got[0].UID)
	assert.Equal(t, uint32(1), got[1].UID)

	assert.Empty(t, filterTargetEmails(emails, "missing"))
}

func TestAttachmentHandlerRoutesFiles(t *testing.T) {
	dir := t.TempDir()
	lfDir := filepath.Join(dir, "t100")
	otpDir := filepath.Join(dir, "otp")
	h := NewAttachmentHandler(lfDir, otpDir, newTestLogger(t))

	email := &Email{
		UID:     7,
		Subject: "BTS monthly",
		Attachments: []*Attachment{
			{Filename: "2024_Segment.csv", Content: []byte("lf")},
			{Filename: "../On_Time_2024_1.xlsx", Content: []byte("otp")},
			{Filename: "readme.txt", Content: []byte("skip")},
		},
	}
	require.NoError(t, h.Handle(email))
	assert.True(t, h.IsProcessed(7))

	data, err := os.ReadFile(filepath.Join(lfDir, "2024_Segment.csv"))
	require.NoError(t, err)
	assert.Equal(t, "lf", string(data))

	data, err = os.ReadFile(filepath.Join(otpDir, "On_Time_2024_1.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "otp", string(data))

	_, err = os.Stat(filepath.Join(otpDir, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestAttachmentHandlerWithoutDataFiles(t *testing.T) {
	h := NewAttachmentHandler(t.TempDir(), t.TempDir(), newTestLogger(t))
	require.NoError(t, h.Handle(&Email{UID: 9, Attachments: []*Attachment{{Filename: "a.pdf"}}}))
	assert.False(t, h.IsProcessed(9))
}

type fakeMailService struct {
	emails       []*Email
	connectErr   error
	disconnected bool
}

func (f *fakeMailService) Connect() error                       { return f.connectErr }
func (f *fakeMailService) Disconnect()                          { f.disconnected = true }
func (f *fakeMailService) FetchUnreadEmails() ([]*Email, error) { return f.emails, nil }

type recordingHandler struct {
	uids []uint32
	fail uint32
}

func (r *recordingHandler) Handle(e *Email) error {
	if e.UID == r.fail {
		return errors.New("disk full")
	}
	r.uids = append(r.uids, e.UID)
	return nil
}

func TestCheckAndProcessEmails(t *testing.T) {
	logger := newTestLogger(t)
	svc := &fakeMailService{emails: []*Email{
		{UID: 1, Subject: "BTS A", Date: time.Unix(200, 0)},
		{UID: 2, Subject: "other", Date: time.Unix(100, 0)},
		{UID: 3, Subject: "BTS B", Date: time.Unix(100, 0)},
		{UID: 4, Subject: "BTS C", Date: time.Unix(300, 0)},
	}}
	handler := &recordingHandler{fail: 4}

	n, err := CheckAndProcessEmails(svc, handler, "BTS", logger)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint32{3, 1}, handler.uids)
	assert.True(t, svc.disconnected)
}

func TestCheckAndProcessEmailsConnectError(t *testing.T) {
	svc := &fakeMailService{connectErr: errors.New("refused")}
	_, err := CheckAndProcessEmails(svc, &recordingHandler{}, "BTS", newTestLogger(t))
	assert.ErrorContains(t, err, "refused")
}

func TestNewEmailClientDefaultWindow(t *testing.T) {
	c := NewEmailClient("imap.example.com:993", "u", "p", 0)
	assert.Equal(t, DefaultRecentDuration, c.window)

	_, err := c.FetchUnreadEmails()
	assert.Error(t, err)
}
