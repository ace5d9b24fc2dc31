package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSignatureMissing заголовок x-signature отсутствует или не содержит ts и v1.
	ErrSignatureMissing = errors.New("webhook signature missing")
	// ErrSignatureInvalid подпись не совпала или устарела.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
)

// SignatureVerifier проверяет заголовок x-signature уведомлений Mercado Pago.
type SignatureVerifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSignatureVerifier создаёт проверку подписи. maxAge ограничивает возраст
// метки ts, ноль отключает проверку возраста.
func NewSignatureVerifier(secret string, maxAge time.Duration) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

// Verify проверяет подпись уведомления о платеже dataID.
// Подписывается строка вида "id:<data.id>;request-id:<x-request-id>;ts:<ts>;",
// части с пустыми значениями опускаются.
func (v *SignatureVerifier) Verify(header, requestID, dataID string) error {
	ts, sig := parseSignatureHeader(header)
	if ts == "" || sig == "" {
		return ErrSignatureMissing
	}

	if v.maxAge > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return ErrSignatureInvalid
		}
		// ts приходит в миллисекундах
		if sec > 1e12 {
			sec /= 1000
		}
		if age := v.now().Sub(time.Unix(sec, 0)); age > v.maxAge || age < -v.maxAge {
			return ErrSignatureInvalid
		}
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(manifest(dataID, requestID, ts)))
	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign возвращает значение заголовка x-signature. Используется в тестах и
// для локальной отладки вебхука.
func (v *SignatureVerifier) Sign(requestID, dataID string, ts time.Time) string {
	stamp := strconv.FormatInt(ts.UnixMilli(), 10)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(manifest(dataID, requestID, stamp)))
	return "ts=" + stamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

func parseSignatureHeader(header string) (ts, sig string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			sig = strings.TrimSpace(value)
		}
	}
	return ts, sig
}
