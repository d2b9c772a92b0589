package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

// WebhookCRC отвечает на CRC-проверку вебхука.
// GET /webhook?crc_token=T
//
// response_token = "sha256=" + base64(HMAC-SHA256(secret, T)).
func (h *Handler) WebhookCRC(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		ServiceUnavailable(w, "webhook secret is not configured")
		return
	}

	token := r.URL.Query().Get("crc_token")
	if token == "" {
		BadRequest(w, "crc_token is required")
		return
	}

	JSON(w, http.StatusOK, WebhookCRCResponse{ResponseToken: CRCResponseToken(h.webhookSecret, token)})
}

// CRCResponseToken вычисляет ответ на CRC-токен.
func CRCResponseToken(secret, token string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return "sha256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
