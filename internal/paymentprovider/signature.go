package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign возвращает hex(HMAC-SHA256(secret, message)).
func Sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySubscriptionSignature проверяет подпись checkout, вычисленную над
// paymentID + "|" + subscriptionID. Сравнение выполняется за постоянное время.
// Пустой секрет или пустая подпись никогда не проходят проверку.
func VerifySubscriptionSignature(secret, paymentID, subscriptionID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, []byte(paymentID+"|"+subscriptionID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature проверяет заголовок X-Razorpay-Signature над сырым телом запроса.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
