package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/social-auth/internal/model"
)

// TelegramMaxAge is how old a login widget payload may be before it is
// refused as a replay.
const TelegramMaxAge = 24 * time.Hour

// TelegramProvider verifies Telegram Login Widget payloads.
//
// The widget redirects with id, first_name, last_name, username, photo_url,
// auth_date and hash in the query string. hash is
// hex(HMAC-SHA256(SHA256(bot_token), data_check_string)), where the
// data_check_string is every other field as "key=value", sorted by key and
// joined with "\n".
type TelegramProvider struct {
	secret []byte
	now    func() time.Time
}

func NewTelegramProvider(botToken string) *TelegramProvider {
	sum := sha256.Sum256([]byte(botToken))
	return &TelegramProvider{secret: sum[:], now: time.Now}
}

func (p *TelegramProvider) Name() model.Provider { return model.ProviderTelegram }

func (p *TelegramProvider) Exchange(_ context.Context, params url.Values) (*Profile, error) {
	hash := params.Get("hash")
	if hash == "" || params.Get("id") == "" {
		return nil, ErrMissingCode
	}

	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(p.sign(params))) {
		return nil, fmt.Errorf("auth: telegram payload signature mismatch")
	}

	authDate, err := strconv.ParseInt(params.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth: telegram auth_date: %w", err)
	}
	if p.now().Sub(time.Unix(authDate, 0)) > TelegramMaxAge {
		return nil, fmt.Errorf("auth: telegram payload is older than %s", TelegramMaxAge)
	}

	first, last := params.Get("first_name"), params.Get("last_name")
	display := strings.TrimSpace(first + " " + last)
	if display == "" {
		display = params.Get("username")
	}

	return &Profile{
		Provider:    model.ProviderTelegram,
		ID:          params.Get("id"),
		DisplayName: display,
		FirstName:   first,
		LastName:    last,
		AvatarURL:   params.Get("photo_url"),
	}, nil
}

// sign computes the expected hex hash for params, ignoring "hash" itself.
func (p *TelegramProvider) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + params.Get(k)
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
