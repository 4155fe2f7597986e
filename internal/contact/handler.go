package contact

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/mailer"
)

// maxAttachmentBytes caps the optional document upload.
const maxAttachmentBytes = 5 << 20

type Config struct {
	// Inbox receives the relayed submissions.
	Inbox string
	// From is the sender identity on the relayed mail.
	From string
}

func ConfigFromEnv() Config {
	inbox := os.Getenv("CONTACT_INBOX")
	if inbox == "" {
		inbox = os.Getenv("EMAIL_USER")
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = os.Getenv("EMAIL_USER")
	}
	return Config{Inbox: inbox, From: from}
}

// Handler relays contact-form submissions to the site inbox. Submissions
// must carry a live session token from GET /api/token.
type Handler struct {
	cfg    Config
	tokens *TokenStore
	mail   mailer.Mailer
	logger *zap.SugaredLogger
}

func NewHandler(cfg Config, tokens *TokenStore, mail mailer.Mailer, logger *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, tokens: tokens, mail: mail, logger: logger}
}

// Token issues a fresh single-use session token, one per page load.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	token := h.tokens.Issue()
	h.logger.Debugw("contact token issued", "token", token)
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// SendEmail accepts the multipart submission and relays it by mail with
// the optional document attached.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	// cap the whole body before parsing; ParseMultipartForm's argument is
	// only a memory threshold and would still spool an oversized upload
	// to disk
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes+1<<20)
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Form parsing failed"})
		return
	}

	token := r.FormValue("token")
	if !h.tokens.Consume(token) {
		h.logger.Warnw("contact form token rejected", "token", token)
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid session token."})
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	company := r.FormValue("company")
	phone := r.FormValue("phone")
	message := r.FormValue("message")

	msg := mailer.Message{
		From:    h.cfg.From,
		To:      h.cfg.Inbox,
		ReplyTo: email,
		Subject: "New Contact Form Submission from " + name,
		HTML:    renderSubmission(name, email, company, phone, message),
	}

	if file, header, err := r.FormFile("document"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes+1))
		if err != nil || len(content) > maxAttachmentBytes {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Attachment too large"})
			return
		}
		msg.Attachments = append(msg.Attachments, mailer.Attachment{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	if err := h.mail.Send(r.Context(), msg); err != nil {
		h.logger.Errorw("contact form relay failed", "from", email, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error sending email."})
		return
	}

	h.logger.Infow("contact form relayed", "name", name, "email", email)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Email sent successfully!"})
}

func renderSubmission(name, email, company, phone, message string) string {
	if company == "" {
		company = "N/A"
	}
	if phone == "" {
		phone = "N/A"
	}
	return fmt.Sprintf(`<h2>New Message from Your Website</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Company:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`,
		html.EscapeString(name), html.EscapeString(email), html.EscapeString(company),
		html.EscapeString(phone), html.EscapeString(message))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
