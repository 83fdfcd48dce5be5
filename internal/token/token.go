package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// payload structure for encoding/decoding
type payload struct {
	ReqID    string `json:"r"`
	BannerID int    `json:"b"`
	CID      int    `json:"c"`
	ViewerID int    `json:"v"`
	Slot     string `json:"s"`
	TS       int64  `json:"t"`
}

// Claims are the values carried by a verified interaction token.
type Claims struct {
	RequestID  string
	BannerID   int
	CampaignID int
	ViewerID   int
	SlotName   string
}

// Generate creates a signed interaction token binding a served banner to the
// request and viewer it was served for.
func Generate(requestID string, bannerID, campaignID, viewerID int, slotName string, secret []byte) (string, error) {
	pl := payload{
		ReqID:    requestID,
		BannerID: bannerID,
		CID:      campaignID,
		ViewerID: viewerID,
		Slot:     slotName,
		TS:       time.Now().Unix(),
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig), nil
}

// Verify checks the token integrity and expiry and returns its claims.
func Verify(token string, secret []byte, ttl time.Duration) (Claims, error) {
	var out Claims
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return out, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return out, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return out, ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return out, ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return out, ErrInvalid
	}
	if ttl > 0 && time.Since(time.Unix(pl.TS, 0)) > ttl {
		return out, ErrExpired
	}
	out.RequestID = pl.ReqID
	out.BannerID = pl.BannerID
	out.CampaignID = pl.CID
	out.ViewerID = pl.ViewerID
	out.SlotName = pl.Slot
	return out, nil
}
