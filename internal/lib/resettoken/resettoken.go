// Package resettoken выпускает одноразовые токены восстановления пароля.
// Пользователь получает сырой токен, в базе хранится только его дайджест.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const rawBytes = 20

// Token выпущенный токен восстановления.
type Token struct {
	Raw    string
	Digest string
	Expiry time.Time
}

// Issue создает новый токен, действующий ttl начиная с now.
func Issue(now time.Time, ttl time.Duration) (Token, error) {
	const op = "resettoken.Issue"
	buf := make([]byte, rawBytes)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}
	raw := hex.EncodeToString(buf)
	return Token{
		Raw:    raw,
		Digest: Digest(raw),
		Expiry: now.Add(ttl),
	}, nil
}

// Digest возвращает hex SHA-256 от сырого токена.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
